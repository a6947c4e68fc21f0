package cpu

import (
	"errors"

	"github.com/pixelvm/pixelvm/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrUnknownMnemonic = errors.New(f("unknown mnemonic"))
	ErrArityMismatch   = errors.New(f("wrong operand count"))
	ErrOperandKind     = errors.New(f("operand kind not allowed here"))
	ErrDuplicateLabel  = errors.New(f("label duplicated"))
	ErrRegisterRange   = errors.New(f("register out of range"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))

	// Runtime faults
	ErrDivisionByZero = errors.New(f("division by zero"))
	ErrMemoryRange    = errors.New(f("memory access out of range"))
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrJumpTarget     = errors.New(f("jump target out of range"))
)

// ErrUndefinedLabel reports a label reference with no matching declaration.
type ErrUndefinedLabel string

func (el ErrUndefinedLabel) Error() string {
	return f("label %v undefined", string(el))
}

// ErrParseNumber reports a token that is not a number.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression reports an invalid compile-time $() expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrAssembly locates an assembly error at its source line. Assembly aborts
// on the first occurrence; no Program is produced.
type ErrAssembly struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrAssembly) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrAssembly) Unwrap() error {
	return err.Err
}

// ErrRuntime locates a fault at the instruction that raised it. A fault is
// terminal: the CPU stays Faulted and never retries the instruction.
type ErrRuntime struct {
	Index int
	Op    Op
	Err   error
}

func (err *ErrRuntime) Error() string {
	return f("instruction %d %v: %v", err.Index, err.Op, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
