// Package funit models the functional units that actually execute
// instructions once a reservation station is ready: single-slot
// arithmetic units for add/mult, and N-slot buffers for load/store.
package funit

import (
	"fmt"

	"github.com/sarchlab/tomasulosim/insts"
)

// Unit is the narrow interface the scheduler needs to test occupancy when
// deciding whether a reservation station may start execution.
type Unit interface {
	IsAvailable() bool
}

// StructuralError reports an out-of-range or otherwise malformed access to
// a functional unit, per the spec's structural-error fatal condition.
type StructuralError struct {
	Op  string
	Msg string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("functional unit structural error in %s: %s", e.Op, e.Msg)
}

// ArithmeticUnit is the single-slot add or mult functional unit.
type ArithmeticUnit struct {
	name       string
	instr      *insts.Instruction
	startCycle uint64
	stationIdx int
	occupied   bool
}

// NewArithmeticUnit creates an empty arithmetic unit identified by name
// (used only for diagnostics, e.g. "add" or "mult").
func NewArithmeticUnit(name string) *ArithmeticUnit {
	return &ArithmeticUnit{name: name}
}

// IsAvailable reports whether the unit currently holds no instruction.
func (u *ArithmeticUnit) IsAvailable() bool {
	return !u.occupied
}

// IsOccupied reports whether the unit currently holds an instruction.
func (u *ArithmeticUnit) IsOccupied() bool {
	return u.occupied
}

// Load assigns instr to the unit, recording the cycle it started and the
// reservation station that dispatched it. Callers must first check
// IsAvailable.
func (u *ArithmeticUnit) Load(instr *insts.Instruction, startCycle uint64, stationIdx int) {
	u.instr = instr
	u.startCycle = startCycle
	u.stationIdx = stationIdx
	u.occupied = true
}

// Empty releases the unit. Arithmetic units have no index to target;
// calling Empty is the only valid release operation (mirroring the
// spec's rule that indexed access to an arithmetic unit is an error).
func (u *ArithmeticUnit) Empty() {
	u.instr = nil
	u.startCycle = 0
	u.stationIdx = 0
	u.occupied = false
}

// Instruction returns the instruction currently occupying the unit, or nil.
func (u *ArithmeticUnit) Instruction() *insts.Instruction {
	return u.instr
}

// StationIndex returns the global station index that dispatched the
// current occupant.
func (u *ArithmeticUnit) StationIndex() int {
	return u.stationIdx
}

// IsComplete reports whether the occupant's execution finishes exactly at
// cycle now: now - start + 1 == latency (clocks start at 1, so a
// unit-latency instruction completes the cycle it starts).
func (u *ArithmeticUnit) IsComplete(now uint64) bool {
	if !u.occupied {
		return false
	}
	return int64(now)-int64(u.startCycle)+1 == int64(u.instr.Latency)
}

type bufferSlot struct {
	occupied   bool
	instr      *insts.Instruction
	startCycle uint64
	stationIdx int
}

// MemoryBuffer is the N-slot load or store buffer. Its slots are
// independent. Empty addresses a slot by the global reservation-station
// index that loaded it; OccupiedSlots, SlotInstruction, SlotStationIndex
// and IsComplete work with raw slot positions.
type MemoryBuffer struct {
	name  string
	slots []bufferSlot
}

// NewMemoryBuffer creates a buffer with n empty slots.
func NewMemoryBuffer(name string, n int) *MemoryBuffer {
	return &MemoryBuffer{name: name, slots: make([]bufferSlot, n)}
}

// findEmptySlot returns the lowest-indexed empty slot, if any.
func (b *MemoryBuffer) findEmptySlot() (int, bool) {
	for i := range b.slots {
		if !b.slots[i].occupied {
			return i, true
		}
	}
	return 0, false
}

// IsAvailable reports whether at least one slot is empty.
func (b *MemoryBuffer) IsAvailable() bool {
	_, ok := b.findEmptySlot()
	return ok
}

// Load stores instr into the first empty slot, recording the station
// index that dispatched it. Returns false if the buffer is full; callers
// must check IsAvailable first in normal operation.
func (b *MemoryBuffer) Load(instr *insts.Instruction, startCycle uint64, stationIdx int) bool {
	i, ok := b.findEmptySlot()
	if !ok {
		return false
	}
	b.slots[i] = bufferSlot{occupied: true, instr: instr, startCycle: startCycle, stationIdx: stationIdx}
	return true
}

// Empty releases the slot whose station index matches stationIdx. It is a
// structural error for no such occupied slot to exist.
func (b *MemoryBuffer) Empty(stationIdx int) error {
	for i := range b.slots {
		if b.slots[i].occupied && b.slots[i].stationIdx == stationIdx {
			b.slots[i] = bufferSlot{}
			return nil
		}
	}
	return &StructuralError{Op: "empty_" + b.name + "_buffer", Msg: fmt.Sprintf("no occupied slot for station index %d", stationIdx)}
}

// OccupiedSlots returns the indices of occupied slots in ascending order.
func (b *MemoryBuffer) OccupiedSlots() []int {
	var out []int
	for i := range b.slots {
		if b.slots[i].occupied {
			out = append(out, i)
		}
	}
	return out
}

// SlotInstruction returns the instruction occupying slot.
func (b *MemoryBuffer) SlotInstruction(slot int) *insts.Instruction {
	return b.slots[slot].instr
}

// SlotStationIndex returns the global reservation-station index that
// loaded slot.
func (b *MemoryBuffer) SlotStationIndex(slot int) int {
	return b.slots[slot].stationIdx
}

// IsComplete reports whether the occupant of slot finishes exactly at
// cycle now.
func (b *MemoryBuffer) IsComplete(slot int, now uint64) bool {
	s := b.slots[slot]
	if !s.occupied {
		return false
	}
	return int64(now)-int64(s.startCycle)+1 == int64(s.instr.Latency)
}
