package cpu

import "fmt"

// OperandKind is the closed set of operand encodings, decided once at
// assembly time. The engine switches on the kind and never re-inspects
// token text at run time.
type OperandKind int

const (
	// KindRegister names a register cell directly.
	KindRegister = OperandKind(iota)
	// KindIndirect addresses RAM through a register's current value. The
	// address is re-read from the register on every access.
	KindIndirect
	// KindImmediate is an integer literal.
	KindImmediate
	// KindLabel is a resolved absolute instruction index.
	KindLabel
)

var kindNames = map[OperandKind]string{
	KindRegister:  "register",
	KindIndirect:  "indirect",
	KindImmediate: "immediate",
	KindLabel:     "label",
}

func (kind OperandKind) String() string {
	name, ok := kindNames[kind]
	if !ok {
		return fmt.Sprintf("OperandKind(%d)", int(kind))
	}
	return name
}

// Operand is one operand of a decoded instruction. Value holds the register
// id for register and indirect kinds, the literal for immediates, and the
// instruction index for resolved labels.
type Operand struct {
	Kind  OperandKind
	Value uint64
}

func (o Operand) String() string {
	switch o.Kind {
	case KindRegister:
		return fmt.Sprintf("r%d", o.Value)
	case KindIndirect:
		return fmt.Sprintf("[r%d]", o.Value)
	case KindLabel:
		return fmt.Sprintf("@%d", o.Value)
	default:
		return fmt.Sprintf("%d", o.Value)
	}
}
