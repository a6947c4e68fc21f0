package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures side channel events for inspection.
type recorder struct {
	pixels []([3]uint64)
	clears int
	prints []uint64
}

func (r *recorder) SetPixel(x, y int, color uint32) {
	r.pixels = append(r.pixels, [3]uint64{uint64(x), uint64(y), uint64(color)})
}

func (r *recorder) Clear() {
	r.clears += 1
}

func (r *recorder) Print(value uint64) {
	r.prints = append(r.prints, value)
}

// runProgram assembles and runs a program to completion.
func runProgram(t *testing.T, params Params, rec *recorder, lines ...string) *CPU {
	t.Helper()

	prog := mustParse(t, lines...)
	c := NewCPU(prog, params)
	if rec != nil {
		c.Pixels = rec
		c.Printer = rec
	}

	for i := 0; c.State() == StateRunning; i++ {
		require.Less(t, i, 1_000_000, "program did not terminate")
		c.Step()
	}

	return c
}

func TestCpu_ArithmeticWrap(t *testing.T) {
	table := []struct {
		name string
		op   string
		a, b uint64
		want uint64
	}{
		{"add", "ADD", 200, 100, 44},
		{"add_exact", "ADD", 255, 1, 0},
		{"sub", "SUB", 5, 10, 251},
		{"mul", "MUL", 16, 32, 0},
		{"mul_wrap", "MUL", 100, 3, 44},
		{"and", "AND", 0xcc, 0xaa, 0x88},
		{"or", "OR", 0xc0, 0x0c, 0xcc},
		{"xor", "XOR", 0xff, 0x0f, 0xf0},
		{"shr", "SHR", 0x80, 3, 0x10},
		{"mod", "MOD", 7, 3, 1},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			c := runProgram(t, Params{Bits: 8}, nil,
				fmt.Sprintf("MOV r0, %d", entry.a),
				fmt.Sprintf("%s r0, %d", entry.op, entry.b),
				"HLT",
			)

			assert.Equal(StateHalted, c.State())
			assert.Equal(entry.want, c.Register[0], entry.name)
		})
	}
}

func TestCpu_Shl(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"MOV r0, 1",
		"SHL r0, 16",
		"MOV r1, 1",
		"SHL r1, 40",  // shifts past the word width
		"MOV r2, 1",
		"SHL r2, 100", // shifts past the host width
		"HLT",
	)

	assert.Equal(uint64(0x10000), c.Register[0])
	assert.Equal(uint64(0), c.Register[1])
	assert.Equal(uint64(0), c.Register[2])
}

func TestCpu_DivTruncatesTowardZero(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"MOV r0, -7",
		"DIV r0, 2",
		"MOV r1, 7",
		"DIV r1, -2",
		"MOV r2, 7",
		"DIV r2, 2",
		"HLT",
	)

	assert.Equal(uint64(0xfffffffd), c.Register[0]) // -3
	assert.Equal(uint64(0xfffffffd), c.Register[1]) // -3
	assert.Equal(uint64(3), c.Register[2])
}

func TestCpu_DivisionByZero(t *testing.T) {
	table := []struct {
		name     string
		dividend int
	}{
		{"zero_dividend", 0},
		{"nonzero_dividend", 123},
		{"negative_dividend", -5},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			c := runProgram(t, Params{}, nil,
				fmt.Sprintf("MOV r0, %d", entry.dividend),
				"DIV r0, 0",
				"HLT",
			)

			assert.Equal(StateFaulted, c.State())
			assert.ErrorIs(c.Fault(), ErrDivisionByZero)

			var rerr *ErrRuntime
			if assert.ErrorAs(c.Fault(), &rerr) {
				assert.Equal(1, rerr.Index)
				assert.Equal(DIV, rerr.Op)
			}
		})
	}
}

func TestCpu_CmpJn(t *testing.T) {
	assert := assert.New(t)

	// JN jumps exactly when the compared values differ.
	c := runProgram(t, Params{}, nil,
		"MOV r0, 1",
		"CMP r0, 2",
		"JN unequal",
		"MOV r1, 111", // skipped
		"unequal:",
		"CMP r0, 1",
		"JN equal",
		"MOV r2, 222", // not skipped: flag is true, PC advances
		"equal: HLT",
	)

	assert.Equal(StateHalted, c.State())
	assert.Equal(uint64(0), c.Register[1])
	assert.Equal(uint64(222), c.Register[2])
}

func TestCpu_JmpJe(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"CMP r0, 0",
		"JE taken",
		"MOV r1, 111", // skipped
		"taken:",
		"JMP done",
		"MOV r2, 222", // skipped
		"done: HLT",
	)

	assert.Equal(uint64(0), c.Register[1])
	assert.Equal(uint64(0), c.Register[2])
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	// Two nested calls return to the instruction after each call site.
	c := runProgram(t, Params{}, nil,
		"CALL outer",
		"MOV r3, 3",
		"HLT",
		"outer:",
		"MOV r0, 1",
		"CALL inner",
		"MOV r2, 2",
		"RET",
		"inner:",
		"MOV r1, 1",
		"RET",
	)

	assert.Equal(StateHalted, c.State())
	assert.Equal(uint64(1), c.Register[0])
	assert.Equal(uint64(1), c.Register[1])
	assert.Equal(uint64(2), c.Register[2])
	assert.Equal(uint64(3), c.Register[3])
	assert.Equal(0, c.Stack.Depth())
}

func TestCpu_StackUnderflow(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"CALL sub",
		"RET", // one RET more than CALLs
		"sub: RET",
	)

	assert.Equal(StateFaulted, c.State())
	assert.ErrorIs(c.Fault(), ErrStackUnderflow)

	var rerr *ErrRuntime
	if assert.ErrorAs(c.Fault(), &rerr) {
		assert.Equal(RET, rerr.Op)
	}
}

func TestCpu_StackOverflow(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{StackSize: 8}, nil,
		"again: CALL again",
	)

	assert.Equal(StateFaulted, c.State())
	assert.ErrorIs(c.Fault(), ErrStackOverflow)
	assert.Equal(8, c.Stack.Depth())
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"PUSH 10",
		"PUSH 20",
		"POP r0",
		"POP r1",
		"HLT",
	)

	assert.Equal(uint64(20), c.Register[0])
	assert.Equal(uint64(10), c.Register[1])
}

func TestCpu_RetTargetValidated(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"PUSH 9999",
		"RET",
	)

	assert.Equal(StateFaulted, c.State())
	assert.ErrorIs(c.Fault(), ErrJumpTarget)
}

func TestCpu_JumpTargetOutOfRange(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"JMP 9999",
	)

	assert.Equal(StateFaulted, c.State())
	assert.ErrorIs(c.Fault(), ErrJumpTarget)
}

func TestCpu_MemoryIndirect(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"MOV r6, 9",
		"MOV [r6], 5",
		"INC [r6]",
		"HLT",
	)

	assert.Equal(StateHalted, c.State())
	assert.Equal(uint64(6), c.RAM[9])
}

func TestCpu_MemoryIndirectAddressReRead(t *testing.T) {
	assert := assert.New(t)

	// The address register changes between accesses; each access re-reads it.
	c := runProgram(t, Params{}, nil,
		"MOV r0, 1",
		"MOV [r0], 11",
		"MOV r0, 2",
		"MOV [r0], 22",
		"HLT",
	)

	assert.Equal(uint64(11), c.RAM[1])
	assert.Equal(uint64(22), c.RAM[2])
}

func TestCpu_MemoryOutOfRange(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{RAMSize: 64}, nil,
		"MOV r0, 64",
		"MOV [r0], 1",
	)

	assert.Equal(StateFaulted, c.State())
	assert.ErrorIs(c.Fault(), ErrMemoryRange)
}

func TestCpu_HaltPastEnd(t *testing.T) {
	assert := assert.New(t)

	prog := mustParse(t, "NOP")
	c := NewCPU(prog, Params{})

	res := c.Step()
	assert.Equal(StateHalted, res.State)
	assert.NoError(res.Err)
	assert.Equal(1, c.PC)
}

func TestCpu_StepTerminalNoOp(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil, "DIV r0, 0")
	assert.Equal(StateFaulted, c.State())

	pc := c.PC
	count := c.InstructionCount
	fault := c.Fault()

	res := c.Step()
	assert.Equal(StateFaulted, res.State)
	assert.Equal(fault, res.Err)
	assert.Equal(pc, c.PC)
	assert.Equal(count, c.InstructionCount)
}

func TestCpu_ColorAndPixels(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	c := runProgram(t, Params{}, rec,
		"COL 0xff123456", // masked to 24 bits
		"DSP 3, 4",
		"MOV r0, 0x00ff00",
		"COL r0",
		"DSP 5, 6",
		"CLS",
		"HLT",
	)

	assert.Equal(StateHalted, c.State())
	assert.Equal(uint32(0x123456), c.Color&0xffffff)
	assert.Equal([]([3]uint64){
		{3, 4, 0x123456},
		{5, 6, 0x00ff00},
	}, rec.pixels)
	assert.Equal(1, rec.clears)
}

func TestCpu_PixelsDisabled(t *testing.T) {
	assert := assert.New(t)

	// Nil sinks: DSP, CLS, and PRT run without emitting.
	c := runProgram(t, Params{}, nil,
		"COL 7",
		"DSP 0, 0",
		"CLS",
		"PRT 42",
		"HLT",
	)

	assert.Equal(StateHalted, c.State())
}

func TestCpu_Print(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{}
	runProgram(t, Params{}, rec,
		"MOV r0, 41",
		"INC r0",
		"PRT r0",
		"MOV r1, 3",
		"MOV [r1], 9",
		"PRT [r1]",
		"HLT",
	)

	assert.Equal([]uint64{42, 9}, rec.prints)
}

func TestCpu_Unary(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{Bits: 8}, nil,
		"MOV r0, 0x0f",
		"NOT r0",
		"MOV r1, 1",
		"NEG r1",
		"MOV r2, 0",
		"DEC r2",
		"HLT",
	)

	assert.Equal(uint64(0xf0), c.Register[0])
	assert.Equal(uint64(0xff), c.Register[1])
	assert.Equal(uint64(0xff), c.Register[2])
}

func TestCpu_Rnd(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{Bits: 8}, nil,
		"RND r0",
		"HLT",
	)

	// Masked to the word width.
	assert.Less(c.Register[0], uint64(256))
}

func TestCpu_GeometryClamped(t *testing.T) {
	assert := assert.New(t)

	// A negative word width takes the default instead of panicking on a
	// negative shift when the mask is built.
	c := runProgram(t, Params{Bits: -1}, nil,
		"MOV r0, -1",
		"HLT",
	)
	assert.Equal(StateHalted, c.State())
	assert.Equal(DefaultBits, c.Bits)
	assert.Equal(uint64(0xffffffff), c.Register[0])

	// An oversized width clamps to 64 and keeps signed division sound.
	c = runProgram(t, Params{Bits: 128}, nil,
		"MOV r0, 10",
		"DIV r0, 2",
		"HLT",
	)
	assert.Equal(StateHalted, c.State())
	assert.Equal(64, c.Bits)
	assert.Equal(uint64(5), c.Register[0])

	// Negative capacities take the defaults.
	c = NewCPU(mustParse(t, "HLT"), Params{
		RegisterCount: -4,
		RAMSize:       -10,
		StackSize:     -1,
	})
	assert.Equal(DefaultRegisterCount, len(c.Register))
	assert.Equal(DefaultRAMSize, len(c.RAM))
	assert.Equal(DefaultStackSize, c.Stack.Limit)
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	c := runProgram(t, Params{}, nil,
		"MOV r0, 7",
		"MOV r1, 3",
		"MOV [r1], 9",
		"PUSH 1",
		"CMP r0, 7",
		"COL 5",
		"HLT",
	)
	assert.Equal(StateHalted, c.State())

	c.Reset()
	assert.Equal(StateRunning, c.State())
	assert.Equal(0, c.PC)
	assert.Equal(uint64(0), c.Register[0])
	assert.Equal(uint64(0), c.RAM[3])
	assert.Equal(0, c.Stack.Depth())
	assert.False(c.Flag)
	assert.Equal(uint32(0), c.Color)
	assert.NoError(c.Fault())
}
