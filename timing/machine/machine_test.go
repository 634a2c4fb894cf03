package machine_test

import (
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasulosim/insts"
	"github.com/sarchlab/tomasulosim/timing/latency"
	"github.com/sarchlab/tomasulosim/timing/machine"
)

func reg(name string) insts.Operand {
	return insts.Operand{Kind: insts.OperandRegister, Reg: name}
}

func imm(n int64) insts.Operand {
	return insts.Operand{Kind: insts.OperandImmediate, Imm: n}
}

func build(cfg *latency.Config, ops ...insts.Op) []insts.Instruction {
	out := make([]insts.Instruction, len(ops))
	for i, op := range ops {
		out[i] = insts.Instruction{
			Index:    i,
			Op:       op,
			Dest:     "F0",
			Operand1: imm(34),
			Operand2: imm(0),
			Latency:  cfg.LatencyFor(op),
		}
	}
	return out
}

var _ = Describe("Machine", func() {
	var cfg *latency.Config

	BeforeEach(func() {
		cfg = latency.Default()
	})

	// S1 — single independent LD.
	It("schedules a single independent LD per the fixed pipeline latencies", func() {
		instrs := []insts.Instruction{
			{Index: 0, Op: insts.OpLD, Dest: "F0", Operand1: imm(34), Operand2: imm(0), Latency: cfg.LatencyFor(insts.OpLD)},
		}
		m := machine.New(instrs, cfg, logr.Discard())

		Expect(m.Run(0)).To(Succeed())

		row := m.Table().Row(0)
		Expect(*row.Issue).To(Equal(uint64(1)))
		Expect(*row.ExecStart).To(Equal(uint64(2)))
		Expect(*row.ExecComplete).To(Equal(uint64(4)))
		Expect(*row.WriteResult).To(Equal(uint64(5)))
	})

	// S2 — ADDD with RAW on both operands after two LDs.
	It("honors RAW dependencies across two LDs feeding an ADDD", func() {
		instrs := []insts.Instruction{
			{Index: 0, Op: insts.OpLD, Dest: "F0", Operand1: imm(34), Operand2: imm(0), Latency: cfg.LatencyFor(insts.OpLD)},
			{Index: 1, Op: insts.OpLD, Dest: "F2", Operand1: imm(45), Operand2: imm(0), Latency: cfg.LatencyFor(insts.OpLD)},
			{Index: 2, Op: insts.OpADDD, Dest: "F4", Operand1: reg("F0"), Operand2: reg("F2"), Latency: cfg.LatencyFor(insts.OpADDD)},
		}
		m := machine.New(instrs, cfg, logr.Discard())

		Expect(m.Run(0)).To(Succeed())

		r0, r1, r2 := m.Table().Row(0), m.Table().Row(1), m.Table().Row(2)
		Expect(*r0.Issue).To(Equal(uint64(1)))
		Expect(*r0.ExecStart).To(Equal(uint64(2)))
		Expect(*r0.ExecComplete).To(Equal(uint64(4)))
		Expect(*r0.WriteResult).To(Equal(uint64(5)))

		Expect(*r1.Issue).To(Equal(uint64(2)))
		Expect(*r1.ExecStart).To(Equal(uint64(3)))
		Expect(*r1.ExecComplete).To(Equal(uint64(5)))
		Expect(*r1.WriteResult).To(Equal(uint64(6)))

		Expect(*r2.Issue).To(Equal(uint64(3)))
		Expect(*r2.ExecStart).To(Equal(uint64(7)))
		Expect(*r2.ExecComplete).To(Equal(uint64(8)))
		Expect(*r2.WriteResult).To(Equal(uint64(9)))
	})

	// S3 — WAW renaming: the ADDD must see the second LD's value, and the
	// first LD's write must be suppressed since its tag is superseded.
	It("suppresses a superseded write on WAW renaming", func() {
		instrs := []insts.Instruction{
			{Index: 0, Op: insts.OpLD, Dest: "F0", Operand1: imm(10), Operand2: imm(0), Latency: cfg.LatencyFor(insts.OpLD)},
			{Index: 1, Op: insts.OpLD, Dest: "F0", Operand1: imm(20), Operand2: imm(0), Latency: cfg.LatencyFor(insts.OpLD)},
			{Index: 2, Op: insts.OpADDD, Dest: "F4", Operand1: reg("F0"), Operand2: reg("F0"), Latency: cfg.LatencyFor(insts.OpADDD)},
		}
		m := machine.New(instrs, cfg, logr.Discard())

		Expect(m.Run(0)).To(Succeed())

		for _, row := range m.Table().Rows() {
			Expect(row.IsComplete()).To(BeTrue())
		}
		// LD carries no register-file value in this model (Non-goal: no
		// memory system), so the ADDD's only observable dependency is
		// correct ordering: it must not complete before the second LD.
		Expect(*m.Table().Row(2).ExecStart).To(BeNumerically(">", *m.Table().Row(1).WriteResult-1))
	})

	// S4 — CDB contention: the lower global station index wins the cycle.
	It("resolves CDB contention in favor of the lower global station index", func() {
		// An add issued one cycle ahead of a mult, with a latency one
		// cycle longer, completes execution on the very same cycle as
		// the mult: a genuine two-way race for the CDB.
		instrs := []insts.Instruction{
			{Index: 0, Op: insts.OpADDD, Dest: "F10", Operand1: imm(1), Operand2: imm(1), Latency: 3},
			{Index: 1, Op: insts.OpMULTD, Dest: "F12", Operand1: imm(2), Operand2: imm(2), Latency: 2},
		}

		m := machine.New(instrs, cfg, logr.Discard())
		Expect(m.Run(0)).To(Succeed())

		r0, r1 := m.Table().Row(0), m.Table().Row(1)
		Expect(*r0.ExecComplete).To(Equal(*r1.ExecComplete))
		// Add stations are numbered before mult stations, so the add
		// instruction's write-result must not be later than the mult's.
		Expect(*r0.WriteResult).To(BeNumerically("<=", *r1.WriteResult))
		Expect(m.Stats().CDBContentions).To(BeNumerically(">=", 1))
	})

	// S5 — structural stall at issue: a fourth ADDD must wait for a station
	// to free.
	It("stalls issue of a fourth ADDD until an add station frees", func() {
		instrs := build(cfg, insts.OpADDD, insts.OpADDD, insts.OpADDD, insts.OpADDD)
		dests := []string{"F0", "F2", "F4", "F6"}
		for i := range instrs {
			instrs[i].Dest = dests[i]
			instrs[i].Operand1 = imm(1)
			instrs[i].Operand2 = imm(1)
		}
		m := machine.New(instrs, cfg, logr.Discard())
		Expect(m.Run(0)).To(Succeed())

		Expect(*m.Table().Row(3).Issue).To(Equal(*m.Table().Row(0).WriteResult))
	})

	// S6 — MULTD long latency blocks a subsequent MULTD's execute-start
	// until the unit frees, though it may still issue earlier.
	It("blocks a second MULTD's execute-start until the mult unit frees", func() {
		instrs := []insts.Instruction{
			{Index: 0, Op: insts.OpMULTD, Dest: "F10", Operand1: imm(3), Operand2: imm(4), Latency: cfg.LatencyFor(insts.OpMULTD)},
			{Index: 1, Op: insts.OpMULTD, Dest: "F12", Operand1: imm(5), Operand2: imm(6), Latency: cfg.LatencyFor(insts.OpMULTD)},
		}
		m := machine.New(instrs, cfg, logr.Discard())
		Expect(m.Run(0)).To(Succeed())

		r0, r1 := m.Table().Row(0), m.Table().Row(1)
		Expect(*r1.Issue).To(Equal(uint64(2)))
		Expect(*r1.ExecStart).To(BeNumerically(">=", *r0.ExecComplete))
	})

	// Invariant 6: after termination every register's producer tag is
	// empty, verified indirectly via a clean run completing without a
	// ConsistencyError.
	It("terminates with every instruction row complete", func() {
		instrs := build(cfg, insts.OpLD, insts.OpADDD)
		instrs[1].Operand1 = reg("F0")
		instrs[1].Operand2 = imm(1)
		m := machine.New(instrs, cfg, logr.Discard())

		Expect(m.Run(0)).To(Succeed())
		Expect(m.Done()).To(BeTrue())
	})

	It("reports a cycle budget error when the run cannot finish in time", func() {
		instrs := build(cfg, insts.OpMULTD)
		m := machine.New(instrs, cfg, logr.Discard())

		err := m.Run(2)
		Expect(err).To(MatchError(machine.ErrCycleBudgetExceeded))
	})
})
