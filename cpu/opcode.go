package cpu

import "fmt"

// Op is an opcode tag.
type Op int

const (
	NOP = Op(iota)
	MOV
	ADD
	SUB
	MUL
	DIV
	MOD
	AND
	OR
	XOR
	NOT
	NEG
	SHL
	SHR
	INC
	DEC
	CMP
	JMP
	JE
	JN
	CALL
	RET
	PUSH
	POP
	COL
	DSP
	CLS
	PRT
	RND
	HLT
)

var opNames = map[Op]string{
	NOP:  "NOP",
	MOV:  "MOV",
	ADD:  "ADD",
	SUB:  "SUB",
	MUL:  "MUL",
	DIV:  "DIV",
	MOD:  "MOD",
	AND:  "AND",
	OR:   "OR",
	XOR:  "XOR",
	NOT:  "NOT",
	NEG:  "NEG",
	SHL:  "SHL",
	SHR:  "SHR",
	INC:  "INC",
	DEC:  "DEC",
	CMP:  "CMP",
	JMP:  "JMP",
	JE:   "JE",
	JN:   "JN",
	CALL: "CALL",
	RET:  "RET",
	PUSH: "PUSH",
	POP:  "POP",
	COL:  "COL",
	DSP:  "DSP",
	CLS:  "CLS",
	PRT:  "PRT",
	RND:  "RND",
	HLT:  "HLT",
}

// opMap maps mnemonics to opcodes.
var opMap = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

func (op Op) String() string {
	name, ok := opNames[op]
	if !ok {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return name
}

// argClass is the operand class accepted by an instruction slot.
type argClass int

const (
	// argStore accepts a writable destination: register or memory-indirect.
	argStore = argClass(iota)
	// argValue accepts any value source: register, memory-indirect, or immediate.
	argValue
	// argTarget accepts an instruction index: label or immediate.
	argTarget
)

// Allows reports whether an operand kind satisfies the class.
func (class argClass) Allows(kind OperandKind) bool {
	switch class {
	case argStore:
		return kind == KindRegister || kind == KindIndirect
	case argValue:
		return kind == KindRegister || kind == KindIndirect || kind == KindImmediate
	case argTarget:
		return kind == KindLabel || kind == KindImmediate
	}
	return false
}

// signatures fixes the arity and operand classes of every opcode. The
// assembler rejects anything that does not match before a Program exists.
var signatures = map[Op][]argClass{
	NOP:  {},
	MOV:  {argStore, argValue},
	ADD:  {argStore, argValue},
	SUB:  {argStore, argValue},
	MUL:  {argStore, argValue},
	DIV:  {argStore, argValue},
	MOD:  {argStore, argValue},
	AND:  {argStore, argValue},
	OR:   {argStore, argValue},
	XOR:  {argStore, argValue},
	NOT:  {argStore},
	NEG:  {argStore},
	SHL:  {argStore, argValue},
	SHR:  {argStore, argValue},
	INC:  {argStore},
	DEC:  {argStore},
	CMP:  {argValue, argValue},
	JMP:  {argTarget},
	JE:   {argTarget},
	JN:   {argTarget},
	CALL: {argTarget},
	RET:  {},
	PUSH: {argValue},
	POP:  {argStore},
	COL:  {argValue},
	DSP:  {argValue, argValue},
	CLS:  {},
	PRT:  {argValue},
	RND:  {argStore},
	HLT:  {},
}
