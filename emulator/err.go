package emulator

import (
	"github.com/pixelvm/pixelvm/translate"
)

var f = translate.From

// ErrRuntime locates a fault at its assembly source line.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
