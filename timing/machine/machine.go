// Package machine implements the scheduler: the per-cycle state machine
// that coordinates reservation stations, the register renaming table,
// functional units, and common-data-bus arbitration. It is the core of
// the simulator; everything else in this module is a collaborator that
// feeds it an instruction stream or renders its results.
package machine

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/tomasulosim/insts"
	"github.com/sarchlab/tomasulosim/timing/funit"
	"github.com/sarchlab/tomasulosim/timing/latency"
	"github.com/sarchlab/tomasulosim/timing/regfile"
	"github.com/sarchlab/tomasulosim/timing/rs"
	"github.com/sarchlab/tomasulosim/timing/table"
	"github.com/sarchlab/tomasulosim/timing/tag"
)

// ErrCycleBudgetExceeded is returned by Run when maxCycles is reached
// before the simulation would otherwise terminate.
var ErrCycleBudgetExceeded = errors.New("cycle budget exceeded")

// ConsistencyError reports a destination register with no producer tag
// at write-result time: a fatal internal-inconsistency condition.
type ConsistencyError struct {
	Register string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("no producer tag at destination register %s at write-result time", e.Register)
}

// OpcodeError reports an instruction whose opcode cannot be routed to a
// reservation-station class.
type OpcodeError struct {
	Op insts.Op
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("invalid instruction operation %v", e.Op)
}

// Stats summarizes one simulation run.
type Stats struct {
	Cycles           uint64
	InstructionCount int
	IssueStalls      uint64
	CDBContentions   uint64
}

// broadcastEntry is one completed instruction waiting for its CDB slot.
type broadcastEntry struct {
	instr      *insts.Instruction
	class      tag.Class
	stationIdx int
}

// classOrder is the global station-numbering order: loads, then stores,
// then adds, then mults.
var classOrder = []tag.Class{tag.Load, tag.Store, tag.Add, tag.Mult}

// Machine is one self-contained Tomasulo simulation run: its own register
// file, reservation-station pools, functional units, instruction table,
// and pending input/broadcast queues. Constructing a fresh Machine per run
// (rather than relying on package-level state) is what allows multiple
// independent simulations to coexist and tests to run deterministically
// in parallel.
type Machine struct {
	cfg   *latency.Config
	regs  *regfile.RegisterFile
	pools map[tag.Class]*rs.Pool
	arith map[tag.Class]*funit.ArithmeticUnit
	bufs  map[tag.Class]*funit.MemoryBuffer
	units map[tag.Class]funit.Unit

	table     *table.InstructionTable
	queue     []*insts.Instruction
	broadcast []broadcastEntry

	clock uint64
	log   logr.Logger
	stats Stats
}

// New constructs a Machine preloaded with instrs, sized and timed
// according to cfg. log may be the zero logr.Logger (a no-op discard).
func New(instrs []insts.Instruction, cfg *latency.Config, log logr.Logger) *Machine {
	regNames := regfile.StandardRegisterNames()
	regs := regfile.New(regNames, cfg.DefaultRegisterValue)

	loadStart := 1
	storeStart := loadStart + int(cfg.LoadStations)
	addStart := storeStart + int(cfg.StoreStations)
	multStart := addStart + int(cfg.AddStations)

	pools := map[tag.Class]*rs.Pool{
		tag.Load:  rs.NewPool(tag.Load, loadStart, int(cfg.LoadStations)),
		tag.Store: rs.NewPool(tag.Store, storeStart, int(cfg.StoreStations)),
		tag.Add:   rs.NewPool(tag.Add, addStart, int(cfg.AddStations)),
		tag.Mult:  rs.NewPool(tag.Mult, multStart, int(cfg.MultStations)),
	}

	arith := map[tag.Class]*funit.ArithmeticUnit{
		tag.Add:  funit.NewArithmeticUnit("add"),
		tag.Mult: funit.NewArithmeticUnit("mult"),
	}
	bufs := map[tag.Class]*funit.MemoryBuffer{
		tag.Load:  funit.NewMemoryBuffer("load", int(cfg.LoadStations)),
		tag.Store: funit.NewMemoryBuffer("store", int(cfg.StoreStations)),
	}
	units := map[tag.Class]funit.Unit{
		tag.Load:  bufs[tag.Load],
		tag.Store: bufs[tag.Store],
		tag.Add:   arith[tag.Add],
		tag.Mult:  arith[tag.Mult],
	}

	queue := make([]*insts.Instruction, len(instrs))
	for i := range instrs {
		queue[i] = &instrs[i]
	}

	return &Machine{
		cfg:   cfg,
		regs:  regs,
		pools: pools,
		arith: arith,
		bufs:  bufs,
		units: units,
		table: table.New(instrs),
		queue: queue,
		log:   log,
	}
}

// RegisterFile exposes the machine's register file for reporting.
func (m *Machine) RegisterFile() *regfile.RegisterFile { return m.regs }

// Table exposes the instruction table for reporting.
func (m *Machine) Table() *table.InstructionTable { return m.table }

// Clock returns the current cycle number (0 before the first Tick).
func (m *Machine) Clock() uint64 { return m.clock }

// Stats returns a snapshot of run statistics.
func (m *Machine) Stats() Stats {
	s := m.stats
	s.Cycles = m.clock
	return s
}

// Done reports whether the simulation has reached its termination
// condition: the input queue is drained and every table row is complete.
func (m *Machine) Done() bool {
	return len(m.queue) == 0 && !m.table.IsIncomplete()
}

func classForOp(op insts.Op) (tag.Class, error) {
	switch op {
	case insts.OpLD:
		return tag.Load, nil
	case insts.OpSD:
		return tag.Store, nil
	case insts.OpADDD, insts.OpSUBD:
		return tag.Add, nil
	case insts.OpMULTD, insts.OpDIVD:
		return tag.Mult, nil
	default:
		return tag.None, &OpcodeError{Op: op}
	}
}

func executeValue(op insts.Op, vj, vk float64) (float64, bool) {
	switch op {
	case insts.OpADDD:
		return vj + vk, true
	case insts.OpSUBD:
		return vj - vk, true
	case insts.OpMULTD:
		return vj * vk, true
	case insts.OpDIVD:
		return vj / vk, true
	default:
		// LD and SD write no value to the register file in this model.
		return 0, false
	}
}

// Tick advances the simulation by exactly one clock cycle, running the
// four phases in their fixed order: Write-Result, Issue, Start-Execute,
// Complete-Execute. Effects of a later phase are never visible to an
// earlier phase within the same cycle.
func (m *Machine) Tick() error {
	m.clock++

	if err := m.phaseWriteResult(); err != nil {
		return err
	}
	if err := m.phaseIssue(); err != nil {
		return err
	}
	if err := m.phaseStartExecute(); err != nil {
		return err
	}
	if err := m.phaseCompleteExecute(); err != nil {
		return err
	}

	return nil
}

// Run ticks the machine until Done, or until maxCycles is reached
// (maxCycles == 0 means unbounded).
func (m *Machine) Run(maxCycles uint64) error {
	for !m.Done() {
		if maxCycles > 0 && m.clock >= maxCycles {
			return ErrCycleBudgetExceeded
		}
		if err := m.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// phaseWriteResult arbitrates the CDB and commits at most one broadcast.
func (m *Machine) phaseWriteResult() error {
	if len(m.broadcast) == 0 {
		return nil
	}

	if len(m.broadcast) > 1 {
		m.stats.CDBContentions++
	}

	sel := 0
	for i := 1; i < len(m.broadcast); i++ {
		if m.broadcast[i].stationIdx < m.broadcast[sel].stationIdx {
			sel = i
		}
	}
	entry := m.broadcast[sel]

	producerTag := tag.New(entry.class, entry.stationIdx)
	actual := m.regs.ReadTag(entry.instr.Dest)
	if actual.IsEmpty() {
		return &ConsistencyError{Register: entry.instr.Dest}
	}

	station := m.pools[entry.class].Station(entry.stationIdx)
	value, hasValue := executeValue(station.Op, station.VJ, station.VK)

	if err := m.table.SetWriteResult(entry.instr.Index, m.clock); err != nil {
		return err
	}

	// A write-after-write rename may have superseded this station as
	// I.dest's producer since issue; when that's happened, the commit is
	// suppressed (the current producer's own write-result will commit
	// instead) but this station still forwards, releases its unit, and
	// clears itself below.
	if hasValue && actual.Equals(producerTag) {
		m.regs.WriteValue(entry.instr.Dest, value)
	}

	for _, class := range classOrder {
		m.pools[class].Forward(producerTag, value)
	}

	m.regs.ClearTag(entry.instr.Dest, producerTag)

	switch entry.class {
	case tag.Load, tag.Store:
		if err := m.bufs[entry.class].Empty(entry.stationIdx); err != nil {
			return err
		}
	case tag.Add, tag.Mult:
		m.arith[entry.class].Empty()
	}

	if err := m.pools[entry.class].Clear(entry.stationIdx); err != nil {
		return err
	}

	m.broadcast = append(m.broadcast[:sel], m.broadcast[sel+1:]...)

	m.log.V(1).Info("write-result", "cycle", m.clock, "instruction", entry.instr.Index,
		"station", producerTag.Index, "class", producerTag.Class.String())

	return nil
}

// phaseIssue issues at most the head-of-queue instruction, stalling if its
// pool has no free station.
func (m *Machine) phaseIssue() error {
	if len(m.queue) == 0 {
		return nil
	}

	instr := m.queue[0]
	class, err := classForOp(instr.Op)
	if err != nil {
		return err
	}

	pool := m.pools[class]
	idx, ok := pool.FirstFreeIndex()
	if !ok {
		m.stats.IssueStalls++
		m.log.V(1).Info("issue stall", "cycle", m.clock, "instruction", instr.Index, "class", class.String())
		return nil
	}

	if err := m.table.SetIssue(instr.Index, m.clock); err != nil {
		return err
	}
	if err := pool.Issue(idx, instr, m.regs); err != nil {
		return err
	}

	m.queue = m.queue[1:]
	m.stats.InstructionCount++

	m.log.V(1).Info("issue", "cycle", m.clock, "instruction", instr.Index, "station", idx, "class", class.String())

	return nil
}

// phaseStartExecute dispatches stations that became ready on an earlier
// cycle and whose functional unit is free this cycle, in ascending global
// station-index order. A station that is not yet marked ready has its
// readiness (re)computed for use starting next cycle: readiness and
// dispatch are evaluated a cycle apart, exactly as becoming ready and
// starting execution are two separate events in program hardware.
func (m *Machine) phaseStartExecute() error {
	for _, class := range classOrder {
		pool := m.pools[class]
		for _, idx := range pool.OccupiedIndices() {
			st := pool.Station(idx)
			fuAvailable := m.units[class].IsAvailable()

			if !st.Ready {
				pool.ComputeReady(idx, m.regs, fuAvailable)
				continue
			}

			row := m.table.Row(st.Instr.Index)
			if row.ExecStart != nil || !fuAvailable {
				continue
			}

			if err := m.table.SetExecStart(st.Instr.Index, m.clock); err != nil {
				return err
			}

			switch class {
			case tag.Add, tag.Mult:
				m.arith[class].Load(st.Instr, m.clock, idx)
			case tag.Load, tag.Store:
				m.bufs[class].Load(st.Instr, m.clock, idx)
			}

			m.log.V(1).Info("exec-start", "cycle", m.clock, "instruction", st.Instr.Index, "station", idx)
		}
	}
	return nil
}

// phaseCompleteExecute moves every functional unit whose latency has
// elapsed onto the broadcast queue.
func (m *Machine) phaseCompleteExecute() error {
	for _, class := range []tag.Class{tag.Add, tag.Mult} {
		u := m.arith[class]
		if u.IsOccupied() && u.IsComplete(m.clock) {
			instr := u.Instruction()
			stationIdx := u.StationIndex()
			if err := m.table.SetExecComplete(instr.Index, m.clock); err != nil {
				return err
			}
			m.broadcast = append(m.broadcast, broadcastEntry{instr: instr, class: class, stationIdx: stationIdx})
			m.log.V(1).Info("exec-complete", "cycle", m.clock, "instruction", instr.Index, "station", stationIdx)
		}
	}

	for _, class := range []tag.Class{tag.Load, tag.Store} {
		u := m.bufs[class]
		for _, slot := range u.OccupiedSlots() {
			if !u.IsComplete(slot, m.clock) {
				continue
			}
			instr := u.SlotInstruction(slot)
			stationIdx := u.SlotStationIndex(slot)
			if err := m.table.SetExecComplete(instr.Index, m.clock); err != nil {
				return err
			}
			m.broadcast = append(m.broadcast, broadcastEntry{instr: instr, class: class, stationIdx: stationIdx})
			m.log.V(1).Info("exec-complete", "cycle", m.clock, "instruction", instr.Index, "station", stationIdx)
		}
	}

	return nil
}
