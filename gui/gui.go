// Package gui presents the emulator framebuffer in a window. It is strictly
// a consumer of pixel-set events already stored in the framebuffer: the
// window loop drives execution batches and redraws, and the core never
// depends on it.
package gui

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/pixelvm/pixelvm/cpu"
	"github.com/pixelvm/pixelvm/display"
	"github.com/pixelvm/pixelvm/emulator"
)

// ErrNoDisplay indicates the configuration has the display disabled.
var ErrNoDisplay = errors.New("gui: display disabled")

type game struct {
	emu *emulator.Emulator
	fb  *display.Framebuffer

	img *ebiten.Image
	buf []byte

	width  int
	height int
	scale  int

	done bool
	err  error
}

// Update runs one execution batch per presentation tick. Batches stop after
// a halt or fault; the window stays open until closed.
func (g *game) Update() error {
	if g.done {
		return nil
	}

	result := g.emu.RunBatch()
	switch result.State {
	case cpu.StateHalted:
		g.done = true
	case cpu.StateFaulted:
		g.done = true
		g.err = &emulator.ErrRuntime{LineNo: g.emu.FaultLine(), Err: result.Err}
	}

	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.fb.Dirty() {
		g.fb.RGBA(g.buf)
		g.img.WritePixels(g.buf)
		g.fb.Flush()
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.img, &op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width * g.scale, g.height * g.scale
}

// Run opens the window and drives the emulator until the machine stops and
// the window is closed. A fault surfaces as the returned error.
func Run(emu *emulator.Emulator) (err error) {
	fb := emu.Framebuffer
	if fb == nil {
		return ErrNoDisplay
	}

	width, height := fb.Size()
	scale := fb.Scale()

	ebiten.SetWindowSize(width*scale, height*scale)
	ebiten.SetWindowTitle("pixelvm")
	if interval := emu.Config.WindowUpdateInterval; interval > 0 {
		ebiten.SetTPS(max(1, 1000/interval))
	}

	g := &game{
		emu:    emu,
		fb:     fb,
		img:    ebiten.NewImage(width, height),
		buf:    make([]byte, width*height*4),
		width:  width,
		height: height,
		scale:  scale,
	}

	err = ebiten.RunGame(g)
	if err != nil {
		return
	}

	return g.err
}
