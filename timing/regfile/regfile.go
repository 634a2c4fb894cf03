// Package regfile implements the Tomasulo register file: a mapping from
// register name to a pending producer tag and a committed floating-point
// value.
package regfile

import (
	"fmt"

	"github.com/sarchlab/tomasulosim/timing/tag"
)

type entry struct {
	producer tag.Tag
	value    float64
}

// RegisterFile holds the renaming state and committed values for every
// register the simulator knows about (R0...R31, F0...F31 by default).
type RegisterFile struct {
	regs map[string]*entry
	// order preserves insertion order so the final register dump reads in
	// a stable, human-friendly sequence.
	order []string
}

// New creates a register file containing the given register names, each
// initialized to defaultValue with no pending producer.
func New(names []string, defaultValue float64) *RegisterFile {
	rf := &RegisterFile{
		regs:  make(map[string]*entry, len(names)),
		order: append([]string(nil), names...),
	}
	for _, name := range names {
		rf.regs[name] = &entry{value: defaultValue}
	}
	return rf
}

// StandardRegisterNames returns R0..R31 and F0..F31 in that order, the
// default register universe described by the spec's data model.
func StandardRegisterNames() []string {
	names := make([]string, 0, 64)
	for i := 0; i < 32; i++ {
		names = append(names, fmt.Sprintf("R%d", i))
	}
	for i := 0; i < 32; i++ {
		names = append(names, fmt.Sprintf("F%d", i))
	}
	return names
}

func (r *RegisterFile) get(name string) *entry {
	e, ok := r.regs[name]
	if !ok {
		// An unknown register name behaves as a fresh, untagged register
		// rather than panicking: the reader only ever produces names from
		// the program text, and a typo should surface as a normal (if
		// surprising) simulation rather than a crash.
		e = &entry{}
		r.regs[name] = e
		r.order = append(r.order, name)
	}
	return e
}

// ReadValue returns the currently committed value of name.
func (r *RegisterFile) ReadValue(name string) float64 {
	return r.get(name).value
}

// ReadTag returns the pending producer tag for name, or the empty tag if
// the latest writer has already committed.
func (r *RegisterFile) ReadTag(name string) tag.Tag {
	return r.get(name).producer
}

// SetProducer overwrites the pending producer tag for name. This is the
// write-after-write renaming point: a later issue always wins, and any
// earlier tag survives only inside the stations that already captured it.
func (r *RegisterFile) SetProducer(name string, t tag.Tag) {
	r.get(name).producer = t
}

// ClearTag clears the pending producer tag for name only if it still
// equals matching; a late writer whose tag has already been superseded by
// a newer rename is a no-op.
func (r *RegisterFile) ClearTag(name string, matching tag.Tag) {
	e := r.get(name)
	if e.producer.Equals(matching) {
		e.producer.Clear()
	}
}

// WriteValue commits a value to name.
func (r *RegisterFile) WriteValue(name string, value float64) {
	r.get(name).value = value
}

// Names returns every register name currently tracked, in the order they
// were first registered (R0..R31, F0..F31 for the standard universe),
// suitable for the final register dump.
func (r *RegisterFile) Names() []string {
	return append([]string(nil), r.order...)
}
