package cpu

import (
	"iter"
	"strings"
)

// Instruction is an opcode plus its operands. Produced once by the
// assembler, immutable thereafter. LineNo is the source line it came from,
// kept for error reporting and debugger display.
type Instruction struct {
	Op       Op
	Operands []Operand
	LineNo   int
}

func (inst Instruction) String() string {
	parts := make([]string, 0, 1+len(inst.Operands))
	parts = append(parts, inst.Op.String())
	for _, o := range inst.Operands {
		parts = append(parts, o.String())
	}
	return strings.Join(parts, " ")
}

// Program is the sole artifact passed from the assembler to the execution
// engine: the instruction sequence plus the label table, the latter retained
// only for debugger display and never consulted at run time.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}

// Listing yields each instruction with its index, in execution order.
func (prog *Program) Listing() iter.Seq2[int, Instruction] {
	return func(yield func(index int, inst Instruction) bool) {
		for n, inst := range prog.Instructions {
			if !yield(n, inst) {
				return
			}
		}
	}
}

// LabelAt returns the name of a label bound to the given instruction index,
// if any.
func (prog *Program) LabelAt(index int) (name string, ok bool) {
	for label, n := range prog.Labels {
		if n == index {
			return label, true
		}
	}
	return "", false
}
