// Package reader parses the whitespace-separated instruction text format
// into the program-order instruction list the scheduler consumes.
package reader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/tomasulosim/insts"
	"github.com/sarchlab/tomasulosim/timing/latency"
)

// ParseError reports a malformed instruction line or an unrecognized
// opcode, identifying the offending line number and raw text.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s (%q)", e.Line, e.Msg, e.Text)
}

// isImmediateMagnitude reports whether s is a non-empty run of digits.
func isImmediateMagnitude(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseOperand classifies token as an immediate (a run of digits with an
// optional trailing sign character) or a register name.
func parseOperand(token string) insts.Operand {
	if token == "" {
		return insts.Operand{Kind: insts.OperandRegister, Reg: token}
	}

	last := token[len(token)-1]
	if last == '+' || last == '-' {
		magnitude := token[:len(token)-1]
		if isImmediateMagnitude(magnitude) {
			n, _ := strconv.ParseInt(magnitude, 10, 64)
			if last == '-' {
				n = -n
			}
			return insts.Operand{Kind: insts.OperandImmediate, Imm: n}
		}
	}

	if isImmediateMagnitude(token) {
		n, _ := strconv.ParseInt(token, 10, 64)
		return insts.Operand{Kind: insts.OperandImmediate, Imm: n}
	}

	return insts.Operand{Kind: insts.OperandRegister, Reg: token}
}

// Parse reads the instruction file at path and returns the ordered
// instruction list, assigning each instruction's latency from cfg.
// An unrecognized opcode is a fatal *ParseError, reporting the offending
// line and token rather than the silent latency -1 the distilled spec's
// wire format implies.
func Parse(path string, cfg *latency.Config) ([]insts.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instruction file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []insts.Instruction
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: "expected 4 whitespace-separated fields"}
		}

		op := insts.ParseOp(fields[0])
		if op == insts.OpInvalid {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: fmt.Sprintf("unknown opcode %q", fields[0])}
		}

		latencyCycles := cfg.LatencyFor(op)
		if latencyCycles < 0 {
			return nil, &ParseError{Line: lineNo, Text: line, Msg: fmt.Sprintf("opcode %q has no configured latency", fields[0])}
		}

		out = append(out, insts.Instruction{
			Index:    len(out),
			Op:       op,
			Dest:     fields[1],
			Operand1: parseOperand(fields[2]),
			Operand2: parseOperand(fields[3]),
			Latency:  latencyCycles,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read instruction file: %w", err)
	}

	return out, nil
}
