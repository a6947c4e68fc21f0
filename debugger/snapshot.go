package debugger

import (
	"slices"

	"github.com/pixelvm/pixelvm/cpu"
)

// Snapshot is a copy of the machine state for external inspection. Taking a
// snapshot never alters CPU state.
type Snapshot struct {
	State cpu.State
	PC    int
	Flag  bool
	Color uint32

	Registers  []uint64
	RAM        []uint64 // Omitted in reduced mode.
	StackDepth int

	// Instruction is the textual form of the instruction the PC points at,
	// empty past the end of the program.
	Instruction string
}

// Snapshot captures the current machine state. When full is false the
// per-cell RAM view is omitted to lower presentation overhead.
func (d *Debugger) Snapshot(full bool) (snap Snapshot) {
	c := d.CPU

	snap = Snapshot{
		State:      c.State(),
		PC:         c.PC,
		Flag:       c.Flag,
		Color:      c.Color,
		Registers:  slices.Clone(c.Register),
		StackDepth: c.Stack.Depth(),
	}

	if full {
		snap.RAM = slices.Clone(c.RAM)
	}

	if c.PC < len(c.Program.Instructions) {
		snap.Instruction = c.Program.Instructions[c.PC].String()
	}

	return
}
