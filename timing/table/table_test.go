package table

import (
	"testing"

	"github.com/sarchlab/tomasulosim/insts"
)

func TestNewRowsStartEmpty(t *testing.T) {
	tbl := New([]insts.Instruction{{Index: 0}, {Index: 1}})
	if !tbl.IsIncomplete() {
		t.Fatalf("a freshly created table should be incomplete")
	}
	if tbl.Row(0).IsComplete() {
		t.Errorf("a freshly created row should not be complete")
	}
}

func TestStampSequenceCompletesRow(t *testing.T) {
	tbl := New([]insts.Instruction{{Index: 0}})

	if err := tbl.SetIssue(0, 1); err != nil {
		t.Fatalf("SetIssue: %v", err)
	}
	if err := tbl.SetExecStart(0, 2); err != nil {
		t.Fatalf("SetExecStart: %v", err)
	}
	if err := tbl.SetExecComplete(0, 4); err != nil {
		t.Fatalf("SetExecComplete: %v", err)
	}
	if err := tbl.SetWriteResult(0, 5); err != nil {
		t.Fatalf("SetWriteResult: %v", err)
	}

	if !tbl.Row(0).IsComplete() {
		t.Errorf("row should be complete after all four stamps")
	}
	if tbl.IsIncomplete() {
		t.Errorf("table should not be incomplete after its only row completes")
	}
}

func TestDoubleStampIsMonotonicityError(t *testing.T) {
	tbl := New([]insts.Instruction{{Index: 0}})
	if err := tbl.SetIssue(0, 1); err != nil {
		t.Fatalf("SetIssue: %v", err)
	}

	err := tbl.SetIssue(0, 2)
	if err == nil {
		t.Fatalf("expected a MonotonicityError on double-stamping Issue")
	}
	if _, ok := err.(*MonotonicityError); !ok {
		t.Errorf("error type = %T, want *MonotonicityError", err)
	}
}
