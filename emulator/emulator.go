// Package emulator assembles the pixelvm machine from its parts: the
// configuration, the assembler, the execution engine, the debugger, and the
// side channel consumers.
package emulator

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pixelvm/pixelvm/config"
	"github.com/pixelvm/pixelvm/cpu"
	"github.com/pixelvm/pixelvm/debugger"
	"github.com/pixelvm/pixelvm/display"
)

// Emulator state. Program + CPU + debugger + side channels.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.

	Config  config.Config
	Program *cpu.Program
	CPU     *cpu.CPU

	// Debugger is nil when the debug layer is disabled.
	Debugger *debugger.Debugger

	// Framebuffer is nil when the display is disabled.
	Framebuffer *display.Framebuffer

	// PrintTo receives PRT output when printing is enabled. Defaults to
	// standard output.
	PrintTo io.Writer

	// TraceTo receives the textual trace when text debugging is enabled.
	// Defaults to standard output.
	TraceTo io.Writer
}

// New creates an emulator with a normalized configuration and no program.
func New(cfg config.Config) *Emulator {
	return &Emulator{
		Config:  cfg.Normalize(),
		PrintTo: os.Stdout,
		TraceTo: os.Stdout,
	}
}

// writerPrinter adapts an io.Writer to the engine's print side channel.
type writerPrinter struct {
	w io.Writer
}

func (p *writerPrinter) Print(value uint64) {
	fmt.Fprintln(p.w, value)
}

// Load assembles source text and installs the resulting program.
func (emu *Emulator) Load(input io.Reader) (err error) {
	asm := &cpu.Assembler{
		Verbose:       emu.Verbose,
		RegisterCount: emu.Config.RegisterCount,
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.LoadProgram(prog)
	return
}

// LoadProgram builds a fresh machine around an assembled program.
func (emu *Emulator) LoadProgram(prog *cpu.Program) {
	cfg := emu.Config

	emu.Program = prog
	emu.CPU = cpu.NewCPU(prog, cpu.Params{
		Bits:          cfg.Bits,
		RegisterCount: cfg.RegisterCount,
		RAMSize:       cfg.RAMSize,
		StackSize:     cfg.StackSize,
	})
	emu.CPU.Verbose = emu.Verbose

	if cfg.Display {
		emu.Framebuffer = display.NewFramebuffer(
			cfg.DisplayWidth, cfg.DisplayHeight, cfg.PixelScale)
		emu.CPU.Pixels = emu.Framebuffer
	}

	if cfg.Printing {
		emu.CPU.Printer = &writerPrinter{w: emu.PrintTo}
	}

	if cfg.Debug {
		opts := debugger.Options{
			RecordTimings: cfg.RecordTimings,
			MaxSamples:    cfg.MaxGraphPoints,
			Verbose:       emu.Verbose && !cfg.SimpleDebug,
		}
		if cfg.TextDebug {
			opts.Trace = emu.TraceTo
		}
		emu.Debugger = debugger.New(emu.CPU, opts)
	}
}

// Reset rewinds the machine and clears the display and timing history.
func (emu *Emulator) Reset() {
	emu.CPU.Reset()
	if emu.Framebuffer != nil {
		emu.Framebuffer.Clear()
	}
	if emu.Debugger != nil {
		emu.Debugger.ResetTimings()
	}
}

// Step executes a single instruction through the debugger when present.
func (emu *Emulator) Step() cpu.StepResult {
	if emu.Debugger != nil {
		return emu.Debugger.Step()
	}
	return emu.CPU.Step()
}

// RunBatch executes up to one configured batch of instructions.
func (emu *Emulator) RunBatch() (result debugger.BatchResult) {
	if emu.Debugger != nil {
		return emu.Debugger.RunBatch(emu.Config.BatchSize)
	}

	result.State = emu.CPU.State()
	for range emu.Config.BatchSize {
		if result.State != cpu.StateRunning {
			return
		}
		res := emu.CPU.Step()
		result.Steps += 1
		result.State = res.State
		result.Err = res.Err
	}
	return
}

// Run drives batches until the machine halts or faults. The refresh
// callback, when non-nil, runs between batches as the cooperative yield
// point for a presentation loop. A fault is returned wrapped with its
// source line; a breakpoint stops the run cleanly.
func (emu *Emulator) Run(refresh func()) (err error) {
	for {
		result := emu.RunBatch()

		if refresh != nil {
			refresh()
		}

		switch result.State {
		case cpu.StateHalted:
			return nil
		case cpu.StateFaulted:
			return &ErrRuntime{LineNo: emu.FaultLine(), Err: result.Err}
		}

		if result.Breakpoint {
			return nil
		}
	}
}

// FaultLine returns the source line of the faulting instruction, or zero
// when the machine has not faulted.
func (emu *Emulator) FaultLine() int {
	var rerr *cpu.ErrRuntime
	if !errors.As(emu.CPU.Fault(), &rerr) {
		return 0
	}
	if rerr.Index >= len(emu.Program.Instructions) {
		return 0
	}
	return emu.Program.Instructions[rerr.Index].LineNo
}
