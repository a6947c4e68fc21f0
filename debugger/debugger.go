// Package debugger drives the execution engine in bounded batches so a
// presentation loop can amortize refresh cost against execution speed. It
// manages breakpoints, captures per-step timing into a drop-oldest ring,
// and exposes state snapshots for external inspection.
//
// The model is single-threaded and cooperative: one exclusive owner issues
// batches sequentially, and breakpoint or configuration mutations happen
// only between batches.
package debugger

import (
	"fmt"
	"io"
	"time"

	"github.com/k0kubun/pp/v3"

	"github.com/pixelvm/pixelvm/cpu"
)

// Options configures a Debugger.
type Options struct {
	// RecordTimings wraps each step with a duration measurement.
	RecordTimings bool
	// MaxSamples bounds the timing history (drop-oldest).
	MaxSamples int
	// Trace, when non-nil, receives a styled per-step textual trace.
	Trace io.Writer
	// Verbose adds full state dumps to the trace.
	Verbose bool
}

// BatchResult reports a completed batch: the resulting engine state, the
// number of steps actually taken, and whether the batch stopped at a
// breakpoint. Err carries the runtime fault when State is Faulted.
type BatchResult struct {
	State      cpu.State
	Steps      int
	Breakpoint bool
	Err        error
}

// Debugger drives a CPU in batches.
type Debugger struct {
	CPU *cpu.CPU

	opts        Options
	breakpoints map[int]struct{}
	timings     *timingRing
	styles      styles
	printer     *pp.PrettyPrinter
}

// New creates a debugger for a CPU.
func New(c *cpu.CPU, opts Options) *Debugger {
	d := &Debugger{
		CPU:         c,
		opts:        opts,
		breakpoints: make(map[int]struct{}),
		styles:      newStyles(),
	}

	if opts.RecordTimings {
		d.timings = newTimingRing(opts.MaxSamples)
	}
	if opts.Trace != nil {
		d.printer = pp.New()
		d.printer.SetColoringEnabled(false)
	}

	return d
}

// SetBreakpoint arms a breakpoint at an instruction index. Issue only
// between batches.
func (d *Debugger) SetBreakpoint(index int) {
	d.breakpoints[index] = struct{}{}
}

// ClearBreakpoint disarms a breakpoint. Issue only between batches.
func (d *Debugger) ClearBreakpoint(index int) {
	delete(d.breakpoints, index)
}

// Breakpoints returns the armed instruction indexes.
func (d *Debugger) Breakpoints() []int {
	out := make([]int, 0, len(d.breakpoints))
	for index := range d.breakpoints {
		out = append(out, index)
	}
	return out
}

// Step executes a single instruction, with timing capture and tracing.
func (d *Debugger) Step() cpu.StepResult {
	pc := d.CPU.PC
	var text string
	if d.opts.Trace != nil && pc < len(d.CPU.Program.Instructions) {
		text = d.CPU.Program.Instructions[pc].String()
	}

	var begin time.Time
	if d.timings != nil {
		begin = time.Now()
	}

	res := d.CPU.Step()

	if d.timings != nil {
		d.timings.Append(time.Since(begin))
	}
	if d.opts.Trace != nil {
		d.trace(pc, text, res)
	}

	return res
}

// RunBatch calls Step up to n times, stopping early on reaching a
// breakpoint (checked against the PC before executing that instruction),
// on Halted, or on Faulted. The first instruction of a batch is exempt
// from the breakpoint check so that a batch issued at a breakpoint resumes
// instead of stalling.
func (d *Debugger) RunBatch(n int) (result BatchResult) {
	result.State = d.CPU.State()
	result.Err = d.CPU.Fault()

	for range n {
		if result.State != cpu.StateRunning {
			return
		}

		if result.Steps > 0 {
			if _, hit := d.breakpoints[d.CPU.PC]; hit {
				result.Breakpoint = true
				if d.opts.Trace != nil {
					fmt.Fprintln(d.opts.Trace,
						d.styles.breakpoint.Render(f("breakpoint at %d", d.CPU.PC)))
				}
				return
			}
		}

		res := d.Step()
		result.Steps += 1
		result.State = res.State
		result.Err = res.Err
	}

	return
}

// Timings returns the retained per-step durations, oldest first. Nil when
// timing capture is disabled.
func (d *Debugger) Timings() []time.Duration {
	if d.timings == nil {
		return nil
	}
	return d.timings.Samples()
}

// ResetTimings clears the timing history.
func (d *Debugger) ResetTimings() {
	if d.timings != nil {
		d.timings.Reset()
	}
}

// trace writes one styled line per executed step, showing the instruction
// the step ran at the pre-step PC.
func (d *Debugger) trace(pc int, text string, res cpu.StepResult) {
	w := d.opts.Trace

	if res.Err != nil {
		fmt.Fprintln(w, d.styles.err.Render(res.Err.Error()))
		return
	}

	if text == "" {
		// The PC was already past the end; the step only halted.
		text = res.State.String()
	}

	fmt.Fprintf(w, "%s %s\n",
		d.styles.cpu.Render(fmt.Sprintf("%04d", pc)),
		d.styles.instruction.Render(text))

	if d.opts.Verbose {
		fmt.Fprintln(w, d.printer.Sprint(d.Snapshot(false)))
	}
}
