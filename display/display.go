// Package display implements the pixel-output side of the emulator: a
// framebuffer consuming pixel-set events from the engine. Presentation is
// someone else's problem; the framebuffer only stores packed 24-bit colors.
package display

// Framebuffer is a width by height store of packed colors (red in bits
// 16-23, green in 8-15, blue in 0-7). It implements cpu.PixelSink.
// Out-of-range coordinates are silently ignored.
type Framebuffer struct {
	width  int
	height int
	scale  int

	pix   []uint32
	dirty bool
}

// NewFramebuffer creates a cleared framebuffer. Scale is a presentation
// hint only and does not affect addressing.
func NewFramebuffer(width, height, scale int) *Framebuffer {
	if scale < 1 {
		scale = 1
	}
	return &Framebuffer{
		width:  width,
		height: height,
		scale:  scale,
		pix:    make([]uint32, width*height),
	}
}

// SetPixel stores a packed color at (x, y).
func (fb *Framebuffer) SetPixel(x, y int, color uint32) {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return
	}
	fb.pix[y*fb.width+x] = color
	fb.dirty = true
}

// Clear zeroes the framebuffer.
func (fb *Framebuffer) Clear() {
	clear(fb.pix)
	fb.dirty = true
}

// At returns the packed color at (x, y), or zero out of range.
func (fb *Framebuffer) At(x, y int) uint32 {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return 0
	}
	return fb.pix[y*fb.width+x]
}

// Size returns the framebuffer geometry.
func (fb *Framebuffer) Size() (width, height int) {
	return fb.width, fb.height
}

// Scale returns the presentation scale hint.
func (fb *Framebuffer) Scale() int {
	return fb.scale
}

// Dirty reports whether the framebuffer changed since the last Flush.
func (fb *Framebuffer) Dirty() bool {
	return fb.dirty
}

// Flush clears the dirty flag after a presenter has drawn the frame.
func (fb *Framebuffer) Flush() {
	fb.dirty = false
}

// RGBA fills buf with 8-bit RGBA pixels in row-major order, suitable for
// handing to an image backend. Buf must hold width*height*4 bytes.
func (fb *Framebuffer) RGBA(buf []byte) {
	for n, color := range fb.pix {
		buf[n*4+0] = byte(color >> 16)
		buf[n*4+1] = byte(color >> 8)
		buf[n*4+2] = byte(color)
		buf[n*4+3] = 0xff
	}
}
