// Package rs implements the reservation-station pools: the renaming
// slots that buffer an issued instruction along with its captured operand
// values or producer tags until it is ready to execute.
package rs

import (
	"fmt"

	"github.com/sarchlab/tomasulosim/insts"
	"github.com/sarchlab/tomasulosim/timing/regfile"
	"github.com/sarchlab/tomasulosim/timing/tag"
)

// Station is a single reservation-station slot.
type Station struct {
	// Index is this station's global, cross-pool index.
	Index int
	Busy  bool
	Op    insts.Op
	Dest  string

	QJ tag.Tag
	VJ float64
	QK tag.Tag
	VK float64

	// QI is the tag this station publishes as a producer: (pool class, Index).
	QI tag.Tag

	Ready bool
	Instr *insts.Instruction
}

// StructuralError reports an out-of-range station access.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string {
	return "reservation station structural error: " + e.Msg
}

// Pool is one class's set of reservation stations, globally numbered
// starting at startIndex.
type Pool struct {
	Class      tag.Class
	startIndex int
	stations   []*Station
}

// NewPool creates a pool of count stations for class, numbered
// [startIndex, startIndex+count).
func NewPool(class tag.Class, startIndex, count int) *Pool {
	p := &Pool{Class: class, startIndex: startIndex, stations: make([]*Station, count)}
	for i := range p.stations {
		p.stations[i] = &Station{Index: startIndex + i}
	}
	return p
}

// Count returns the number of stations in the pool.
func (p *Pool) Count() int {
	return len(p.stations)
}

// StartIndex returns the pool's first global station index.
func (p *Pool) StartIndex() int {
	return p.startIndex
}

func (p *Pool) localIndex(globalIdx int) (int, error) {
	i := globalIdx - p.startIndex
	if i < 0 || i >= len(p.stations) {
		return 0, &StructuralError{Msg: fmt.Sprintf("index %d out of range for %s pool", globalIdx, p.Class)}
	}
	return i, nil
}

// Station returns the station at the given global index. It panics if the
// index is out of range for this pool; callers are expected to only pass
// indices this pool itself handed out (via FirstFreeIndex or
// OccupiedIndices).
func (p *Pool) Station(globalIdx int) *Station {
	i, err := p.localIndex(globalIdx)
	if err != nil {
		panic(err)
	}
	return p.stations[i]
}

// FirstFreeIndex returns the lowest-indexed non-busy station, scanning in
// ascending order.
func (p *Pool) FirstFreeIndex() (int, bool) {
	for _, s := range p.stations {
		if !s.Busy {
			return s.Index, true
		}
	}
	return 0, false
}

// OccupiedIndices returns the global indices of busy stations, ascending.
func (p *Pool) OccupiedIndices() []int {
	var out []int
	for _, s := range p.stations {
		if s.Busy {
			out = append(out, s.Index)
		}
	}
	return out
}

// IsOccupied reports whether any station in the pool is busy.
func (p *Pool) IsOccupied() bool {
	for _, s := range p.stations {
		if s.Busy {
			return true
		}
	}
	return false
}

// Clear resets the station at globalIdx to its free state.
func (p *Pool) Clear(globalIdx int) error {
	i, err := p.localIndex(globalIdx)
	if err != nil {
		return err
	}
	p.stations[i] = &Station{Index: globalIdx}
	return nil
}

func captureOperand(op insts.Operand, regs *regfile.RegisterFile) (tag.Tag, float64) {
	if op.Kind == insts.OperandImmediate {
		return tag.Empty(), float64(op.Imm)
	}
	t := regs.ReadTag(op.Reg)
	if t.IsEmpty() {
		return tag.Empty(), regs.ReadValue(op.Reg)
	}
	// Operand is pending: the value field is masked until forwarded.
	return t, 0
}

// Issue populates the station at globalIdx from instr, capturing operand
// values or producer tags per the renaming rules, and publishes the
// station's own tag as instr.Dest's new producer (the write-after-write
// rename point).
func (p *Pool) Issue(globalIdx int, instr *insts.Instruction, regs *regfile.RegisterFile) error {
	i, err := p.localIndex(globalIdx)
	if err != nil {
		return err
	}
	st := p.stations[i]

	st.Busy = true
	st.Op = instr.Op
	st.Dest = instr.Dest
	st.Instr = instr
	st.QJ, st.VJ = captureOperand(instr.Operand1, regs)
	st.QK, st.VK = captureOperand(instr.Operand2, regs)
	st.QI = tag.New(p.Class, globalIdx)

	regs.SetProducer(instr.Dest, st.QI)

	return nil
}

// ComputeReady evaluates and caches the station's readiness: both operand
// tags empty, the register file's current producer for the destination
// still matches this station's own tag (no later rename has superseded
// it), and the corresponding functional unit has a free slot.
func (p *Pool) ComputeReady(globalIdx int, regs *regfile.RegisterFile, fuAvailable bool) bool {
	st := p.Station(globalIdx)
	if !st.Busy {
		st.Ready = false
		return false
	}
	ready := st.QJ.IsEmpty() && st.QK.IsEmpty() &&
		regs.ReadTag(st.Dest).Equals(st.QI) && fuAvailable
	st.Ready = ready
	return ready
}

// Forward applies a CDB broadcast of value under producer tag t to every
// station in the pool whose QJ or QK matches t, clearing the matched tag
// and filling in the value.
func (p *Pool) Forward(t tag.Tag, value float64) {
	if t.IsEmpty() {
		return
	}
	for _, st := range p.stations {
		if !st.Busy {
			continue
		}
		if st.QJ.Equals(t) {
			st.VJ = value
			st.QJ.Clear()
		}
		if st.QK.Equals(t) {
			st.VK = value
			st.QK.Clear()
		}
	}
}
