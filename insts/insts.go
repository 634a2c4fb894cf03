// Package insts defines the instruction set understood by the Tomasulo
// simulator: a small floating-point arithmetic and memory ISA (LD, SD,
// ADDD, SUBD, MULTD, DIVD).
package insts

import "fmt"

// Op identifies an instruction operation.
type Op int

// The instruction set supported by the scheduler.
const (
	OpInvalid Op = iota
	OpLD
	OpSD
	OpADDD
	OpSUBD
	OpMULTD
	OpDIVD
)

// String returns the assembly mnemonic for the opcode.
func (o Op) String() string {
	switch o {
	case OpLD:
		return "LD"
	case OpSD:
		return "SD"
	case OpADDD:
		return "ADDD"
	case OpSUBD:
		return "SUBD"
	case OpMULTD:
		return "MULTD"
	case OpDIVD:
		return "DIVD"
	default:
		return "INVALID"
	}
}

// ParseOp maps an assembly mnemonic to an Op. Unknown mnemonics return
// OpInvalid.
func ParseOp(s string) Op {
	switch s {
	case "LD":
		return OpLD
	case "SD":
		return OpSD
	case "ADDD":
		return OpADDD
	case "SUBD":
		return OpSUBD
	case "MULTD":
		return OpMULTD
	case "DIVD":
		return OpDIVD
	default:
		return OpInvalid
	}
}

// IsArithmetic reports whether op is one of ADDD/SUBD/MULTD/DIVD.
func (o Op) IsArithmetic() bool {
	switch o {
	case OpADDD, OpSUBD, OpMULTD, OpDIVD:
		return true
	default:
		return false
	}
}

// OperandKind distinguishes a register operand from an immediate operand.
type OperandKind int

// Operand kinds.
const (
	OperandRegister OperandKind = iota
	OperandImmediate
)

// Operand is either a register name or a signed integer immediate.
// A token is an immediate if it is a run of digits optionally followed by
// a trailing sign character (e.g. "34+", "07-"); otherwise it names a
// register.
type Operand struct {
	Kind OperandKind
	Reg  string
	Imm  int64
}

// String renders a register operand by name and an immediate as a signed
// decimal integer (e.g. "07-" renders as "-7"); the trailing-sign source
// form is not reproduced.
func (o Operand) String() string {
	if o.Kind == OperandImmediate {
		return fmt.Sprintf("%d", o.Imm)
	}
	return o.Reg
}

// Instruction is an immutable record of one program-order instruction.
type Instruction struct {
	// Index is the instruction's position in program order (0-based).
	Index int
	Op    Op
	Dest  string
	Operand1 Operand
	Operand2 Operand
	// Latency is the number of cycles from Exec-Start to Exec-Complete,
	// inclusive. An unrecognized opcode carries Latency -1.
	Latency int
}
