package cpu

import (
	"fmt"
	"log"
	"math/rand/v2"
)

const (
	// DefaultBits is the word width when none is configured.
	DefaultBits = 32
	// DefaultRegisterCount is the register file size when none is configured.
	DefaultRegisterCount = 16
	// DefaultRAMSize is the RAM size in words when none is configured.
	DefaultRAMSize = 1024
)

// State is the execution engine state.
type State int

const (
	// StateRunning accepts further Step calls.
	StateRunning = State(iota)
	// StateHalted is terminal, reached by HLT or by the PC passing the end
	// of the instruction sequence.
	StateHalted
	// StateFaulted is terminal, reached by a runtime fault.
	StateFaulted
)

var stateNames = map[State]string{
	StateRunning: "running",
	StateHalted:  "halted",
	StateFaulted: "faulted",
}

func (s State) String() string {
	name, ok := stateNames[s]
	if !ok {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return name
}

// StepResult is the outcome of a single Step. Err is non-nil exactly when
// State is StateFaulted, and then carries an *ErrRuntime.
type StepResult struct {
	State State
	Err   error
}

// PixelSink consumes pixel-set and display-clear events. Implementations
// must not mutate CPU state from within an event handler; out-of-range
// coordinates are a display-side concern, not an engine fault.
type PixelSink interface {
	SetPixel(x, y int, color uint32)
	Clear()
}

// Printer consumes PRT output.
type Printer interface {
	Print(value uint64)
}

// Params fixes the CPU geometry. Capacities are fixed for the lifetime of a
// CPU instance; zero fields take the package defaults.
type Params struct {
	Bits          int // Word width in bits, up to 64.
	RegisterCount int
	RAMSize       int
	StackSize     int
}

// CPU is the execution engine for a Program. It owns all mutable machine
// state and executes exactly one instruction per Step.
type CPU struct {
	Verbose bool // If set, enables verbose logging.

	Program *Program

	Bits     int
	Register []uint64
	RAM      []uint64
	Stack    *Stack
	PC       int
	Flag     bool
	Color    uint32

	InstructionCount int

	// Pixels and Printer are the side channel consumers. A nil sink
	// disables that channel.
	Pixels  PixelSink
	Printer Printer

	// Rand overrides the RND source, for reproducible runs.
	Rand *rand.Rand

	mask  uint64
	state State
	fault error
}

// NewCPU creates a CPU for a program with the given geometry. Registers,
// RAM, and the stack start zeroed. Out-of-domain geometry is clamped: a
// non-positive capacity takes its package default, and the word width is
// held to 1..64 bits.
func NewCPU(prog *Program, params Params) (c *CPU) {
	if params.Bits <= 0 {
		params.Bits = DefaultBits
	}
	if params.Bits > 64 {
		params.Bits = 64
	}
	if params.RegisterCount <= 0 {
		params.RegisterCount = DefaultRegisterCount
	}
	if params.RAMSize <= 0 {
		params.RAMSize = DefaultRAMSize
	}

	mask := ^uint64(0)
	if params.Bits < 64 {
		mask = (uint64(1) << params.Bits) - 1
	}

	return &CPU{
		Program:  prog,
		Bits:     params.Bits,
		Register: make([]uint64, params.RegisterCount),
		RAM:      make([]uint64, params.RAMSize),
		Stack:    NewStack(params.StackSize),
		mask:     mask,
	}
}

// State returns the current engine state.
func (c *CPU) State() State {
	return c.state
}

// Fault returns the runtime error when the CPU is faulted.
func (c *CPU) Fault() error {
	return c.fault
}

// Reset rewinds the CPU to its construction state. The program and
// capacities are unchanged.
func (c *CPU) Reset() {
	if c.Verbose {
		log.Printf("cpu: reset")
	}

	clear(c.Register)
	clear(c.RAM)
	c.Stack.Reset()
	c.PC = 0
	c.Flag = false
	c.Color = 0
	c.InstructionCount = 0
	c.state = StateRunning
	c.fault = nil
}

// Step executes one instruction. On a non-running CPU it is a no-op
// returning the current terminal state.
func (c *CPU) Step() StepResult {
	if c.state != StateRunning {
		return StepResult{State: c.state, Err: c.fault}
	}

	if c.PC >= len(c.Program.Instructions) {
		c.state = StateHalted
		return StepResult{State: c.state}
	}

	inst := c.Program.Instructions[c.PC]
	if c.Verbose {
		log.Printf("cpu: %04d: %v", c.PC, inst)
	}

	if err := c.execute(inst); err != nil {
		c.fault = &ErrRuntime{Index: c.PC, Op: inst.Op, Err: err}
		c.state = StateFaulted
		return StepResult{State: c.state, Err: c.fault}
	}

	c.InstructionCount += 1

	if c.PC >= len(c.Program.Instructions) {
		c.state = StateHalted
	}

	return StepResult{State: c.state}
}

// execute runs a single decoded instruction and advances the PC.
func (c *CPU) execute(inst Instruction) (err error) {
	next := c.PC + 1
	ops := inst.Operands

	switch inst.Op {
	case NOP:
		// pass

	case MOV:
		var v uint64
		v, err = c.value(ops[1])
		if err != nil {
			return
		}
		err = c.store(ops[0], v)

	case ADD, SUB, MUL, DIV, MOD, AND, OR, XOR, SHL, SHR:
		var a, b, out uint64
		a, err = c.value(ops[0])
		if err != nil {
			return
		}
		b, err = c.value(ops[1])
		if err != nil {
			return
		}
		out, err = c.alu(inst.Op, a, b)
		if err != nil {
			return
		}
		err = c.store(ops[0], out)

	case NOT, NEG, INC, DEC:
		var a, out uint64
		a, err = c.value(ops[0])
		if err != nil {
			return
		}
		switch inst.Op {
		case NOT:
			out = ^a
		case NEG:
			out = -a
		case INC:
			out = a + 1
		case DEC:
			out = a - 1
		}
		err = c.store(ops[0], out)

	case CMP:
		var a, b uint64
		a, err = c.value(ops[0])
		if err != nil {
			return
		}
		b, err = c.value(ops[1])
		if err != nil {
			return
		}
		c.Flag = a == b

	case JMP:
		next, err = c.target(ops[0])

	case JE:
		if c.Flag {
			next, err = c.target(ops[0])
		}

	case JN:
		if !c.Flag {
			next, err = c.target(ops[0])
		}

	case CALL:
		var target int
		target, err = c.target(ops[0])
		if err != nil {
			return
		}
		if !c.Stack.Push(uint64(next)) {
			err = ErrStackOverflow
			return
		}
		next = target

	case RET:
		value, ok := c.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		if value > uint64(len(c.Program.Instructions)) {
			err = ErrJumpTarget
			return
		}
		next = int(value)

	case PUSH:
		var v uint64
		v, err = c.value(ops[0])
		if err != nil {
			return
		}
		if !c.Stack.Push(v) {
			err = ErrStackOverflow
			return
		}

	case POP:
		value, ok := c.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		err = c.store(ops[0], value)

	case COL:
		var v uint64
		v, err = c.value(ops[0])
		if err != nil {
			return
		}
		c.Color = uint32(v & 0xffffff)

	case DSP:
		var x, y uint64
		x, err = c.value(ops[0])
		if err != nil {
			return
		}
		y, err = c.value(ops[1])
		if err != nil {
			return
		}
		if c.Pixels != nil {
			c.Pixels.SetPixel(int(x), int(y), c.Color)
		}

	case CLS:
		if c.Pixels != nil {
			c.Pixels.Clear()
		}

	case PRT:
		var v uint64
		v, err = c.value(ops[0])
		if err != nil {
			return
		}
		if c.Printer != nil {
			c.Printer.Print(v)
		}

	case RND:
		err = c.store(ops[0], c.random())

	case HLT:
		c.state = StateHalted
	}

	if err != nil {
		return
	}

	c.PC = next
	return
}

// value resolves an operand to its word. Memory-indirect operands re-read
// the address register on every access.
func (c *CPU) value(o Operand) (value uint64, err error) {
	switch o.Kind {
	case KindRegister:
		value = c.Register[o.Value]
	case KindIndirect:
		addr := c.Register[o.Value]
		if addr >= uint64(len(c.RAM)) {
			err = ErrMemoryRange
			return
		}
		value = c.RAM[addr]
	case KindImmediate:
		value = o.Value & c.mask
	default:
		// Resolved label: the instruction index, never masked.
		value = o.Value
	}
	return
}

// store writes a word through a destination operand, reduced to the
// configured bit width.
func (c *CPU) store(o Operand, value uint64) (err error) {
	value &= c.mask

	switch o.Kind {
	case KindRegister:
		c.Register[o.Value] = value
	case KindIndirect:
		addr := c.Register[o.Value]
		if addr >= uint64(len(c.RAM)) {
			err = ErrMemoryRange
			return
		}
		c.RAM[addr] = value
	default:
		// Unreachable: the assembler rejects non-store destinations.
		err = ErrOperandKind
	}
	return
}

// target resolves a jump or call operand to an instruction index. An index
// of len(instructions) is permitted and halts the run on the next step.
func (c *CPU) target(o Operand) (index int, err error) {
	value, err := c.value(o)
	if err != nil {
		return
	}
	if value > uint64(len(c.Program.Instructions)) {
		err = ErrJumpTarget
		return
	}
	index = int(value)
	return
}

// alu performs a binary arithmetic or logic operation. DIV and MOD treat
// both words as two's-complement signed at the configured width and
// truncate toward zero.
func (c *CPU) alu(op Op, a, b uint64) (out uint64, err error) {
	switch op {
	case ADD:
		out = a + b
	case SUB:
		out = a - b
	case MUL:
		out = a * b
	case DIV:
		if b == 0 {
			err = ErrDivisionByZero
			return
		}
		out = uint64(c.signed(a) / c.signed(b))
	case MOD:
		if b == 0 {
			err = ErrDivisionByZero
			return
		}
		out = uint64(c.signed(a) % c.signed(b))
	case AND:
		out = a & b
	case OR:
		out = a | b
	case XOR:
		out = a ^ b
	case SHL:
		if b < 64 {
			out = a << b
		}
	case SHR:
		if b < 64 {
			out = a >> b
		}
	}

	out &= c.mask
	return
}

// signed reinterprets a word as two's-complement at the configured width.
func (c *CPU) signed(v uint64) int64 {
	shift := 64 - uint(c.Bits)
	return int64(v<<shift) >> shift
}

// random returns a word in [0, 2^31).
func (c *CPU) random() uint64 {
	if c.Rand != nil {
		return c.Rand.Uint64N(1 << 31)
	}
	return rand.Uint64N(1 << 31)
}
