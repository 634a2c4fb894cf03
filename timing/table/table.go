// Package table implements the instruction (summary) table: the
// authoritative, per-instruction record of the four pipeline-stage
// cycles, used both to drive termination and to render the final report.
package table

import (
	"fmt"

	"github.com/sarchlab/tomasulosim/insts"
)

// MonotonicityError reports an attempt to set a stage-cycle field that has
// already been stamped.
type MonotonicityError struct {
	Field string
	Index int
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("instruction %d: %s was already stamped", e.Index, e.Field)
}

// Row is one instruction's stage-cycle record. A nil field means the
// instruction has not yet reached that stage.
type Row struct {
	Instruction  *insts.Instruction
	Issue        *uint64
	ExecStart    *uint64
	ExecComplete *uint64
	WriteResult  *uint64
}

// IsComplete reports whether every field of the row has been stamped.
func (r *Row) IsComplete() bool {
	return r.Issue != nil && r.ExecStart != nil && r.ExecComplete != nil && r.WriteResult != nil
}

func stamp(field **uint64, name string, idx int, cycle uint64) error {
	if *field != nil {
		return &MonotonicityError{Field: name, Index: idx}
	}
	c := cycle
	*field = &c
	return nil
}

// InstructionTable is the ordered sequence of per-instruction rows, one
// per program-order instruction.
type InstructionTable struct {
	rows []*Row
}

// New creates a table with one blank row per instruction, in program order.
func New(instrs []insts.Instruction) *InstructionTable {
	t := &InstructionTable{rows: make([]*Row, len(instrs))}
	for i := range instrs {
		instr := instrs[i]
		t.rows[i] = &Row{Instruction: &instr}
	}
	return t
}

// Row returns the row for program-order index i.
func (t *InstructionTable) Row(i int) *Row {
	return t.rows[i]
}

// Rows returns every row, in program order.
func (t *InstructionTable) Rows() []*Row {
	return t.rows
}

// SetIssue stamps row i's Issue field with cycle. Fails if already set.
func (t *InstructionTable) SetIssue(i int, cycle uint64) error {
	return stamp(&t.rows[i].Issue, "Issue", i, cycle)
}

// SetExecStart stamps row i's ExecStart field with cycle.
func (t *InstructionTable) SetExecStart(i int, cycle uint64) error {
	return stamp(&t.rows[i].ExecStart, "ExecStart", i, cycle)
}

// SetExecComplete stamps row i's ExecComplete field with cycle.
func (t *InstructionTable) SetExecComplete(i int, cycle uint64) error {
	return stamp(&t.rows[i].ExecComplete, "ExecComplete", i, cycle)
}

// SetWriteResult stamps row i's WriteResult field with cycle.
func (t *InstructionTable) SetWriteResult(i int, cycle uint64) error {
	return stamp(&t.rows[i].WriteResult, "WriteResult", i, cycle)
}

// IsIncomplete reports whether any row still has an empty stage field.
func (t *InstructionTable) IsIncomplete() bool {
	for _, r := range t.rows {
		if !r.IsComplete() {
			return true
		}
	}
	return false
}
