package cpu

import (
	"bufio"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Assembler is the two pass assembler for the pixelvm instruction set.
// Pass one scans for label declarations and equates; pass two encodes
// instruction lines with all labels already known, so no forward-reference
// ambiguity survives assembly. Parsing has no side effects beyond the
// returned Program or error.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	// RegisterCount bounds the register ids accepted in operands.
	// Zero means DefaultRegisterCount.
	RegisterCount int

	predefine map[string]string
	Label     map[string]int    // Map of labels to instruction indexes.
	Equate    map[string]string // Map of equates.
}

// Predefine defines an equate before parsing, or redefines an existing one.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var registerRe = regexp.MustCompile(`^r([0-9]+)$`)
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sourceLine is an instruction line surviving pass one.
type sourceLine struct {
	LineNo int
	Text   string
}

// valueOf returns the numeric value of a literal token, as a raw
// two's-complement word.
func (asm *Assembler) valueOf(word string) (value uint64, err error) {
	invert := false
	if len(word) > 1 && word[0] == '~' {
		invert = true
		word = word[1:]
	}

	value, uerr := strconv.ParseUint(word, 0, 64)
	if uerr != nil {
		v64, serr := strconv.ParseInt(word, 0, 64)
		if serr != nil {
			err = ErrParseNumber(word)
			return
		}
		value = uint64(v64)
	}

	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations with the equate table as
// the expression environment.
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may name registers.
			continue
		}
		pred[key] = starlark.MakeInt64(int64(v))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	stRc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	stInt, ok := stRc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	stInt64, ok := stInt.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint64(stInt64)
	return
}

// expandExprs replaces each $( expr ) in the text with its evaluated value.
// The closing paren is found by depth count, so expressions may nest
// parentheses.
func (asm *Assembler) expandExprs(text string) (out string, err error) {
	for {
		start := strings.Index(text, "$(")
		if start < 0 {
			break
		}

		depth := 0
		end := -1
		for n := start + 1; n < len(text) && end < 0; n++ {
			switch text[n] {
			case '(':
				depth += 1
			case ')':
				depth -= 1
				if depth == 0 {
					end = n
				}
			}
		}
		if end < 0 {
			err = ErrParseExpression(text[start:])
			return
		}

		var value uint64
		value, err = asm.parenEval(text[start+2 : end])
		if err != nil {
			return
		}
		text = text[:start] + strconv.FormatUint(value, 10) + text[end+1:]
	}

	out = text
	return
}

// cleanLine strips the comment and normalizes operand separators.
func cleanLine(text string) string {
	code, _, _ := strings.Cut(text, ";")
	code = strings.ReplaceAll(code, ",", " ")
	return strings.TrimSpace(code)
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrAssembly{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = map[string]string{}
	}

	// Pass one: collect labels, equates, and instruction lines.
	var lines []sourceLine
	for scanner.Scan() {
		lineno += 1
		line = cleanLine(scanner.Text())

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, line)
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		if words[0] == ".equ" {
			if len(words) != 3 {
				err = ErrEquateSyntax
				return
			}
			if _, ok := asm.Equate[words[1]]; ok {
				err = ErrEquateDuplicate
				return
			}
			asm.Equate[words[1]] = words[2]
			continue
		}

		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			label := strings.TrimSuffix(words[0], ":")
			if _, ok := asm.Label[label]; ok {
				err = ErrDuplicateLabel
				return
			}
			asm.Label[label] = len(lines)
			words = words[1:]
		}

		if len(words) == 0 {
			continue
		}

		lines = append(lines, sourceLine{
			LineNo: lineno,
			Text:   strings.Join(words, " "),
		})
	}
	if err = scanner.Err(); err != nil {
		return
	}

	// Pass two: encode each instruction line against the full label table.
	instructions := make([]Instruction, 0, len(lines))
	for _, src := range lines {
		lineno = src.LineNo
		line = src.Text

		var inst Instruction
		inst, err = asm.encodeLine(src.Text, src.LineNo)
		if err != nil {
			return
		}
		instructions = append(instructions, inst)
	}

	prog = &Program{
		Instructions: instructions,
		Labels:       maps.Clone(asm.Label),
	}

	lineno = 0
	line = ""

	return
}

// encodeLine encodes a single instruction line.
func (asm *Assembler) encodeLine(text string, lineno int) (inst Instruction, err error) {
	// Do $() evaluations.
	text, err = asm.expandExprs(text)
	if err != nil {
		return
	}

	words := strings.Fields(text)

	// Equate substitution on operand tokens.
	for n, word := range words[1:] {
		if equate, ok := asm.Equate[word]; ok {
			words[1+n] = equate
		}
	}

	op, ok := opMap[strings.ToUpper(words[0])]
	if !ok {
		err = ErrUnknownMnemonic
		return
	}

	sig := signatures[op]
	if len(words)-1 != len(sig) {
		err = ErrArityMismatch
		return
	}

	operands := make([]Operand, 0, len(sig))
	for n, class := range sig {
		var operand Operand
		operand, err = asm.operand(words[1+n], class)
		if err != nil {
			return
		}
		operands = append(operands, operand)
	}

	inst = Instruction{Op: op, Operands: operands, LineNo: lineno}
	return
}

// registerID extracts a register id from an rN token.
func registerID(word string) (id int, ok bool) {
	m := registerRe.FindStringSubmatch(word)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// operand classifies a single token against the operand class its slot
// accepts.
func (asm *Assembler) operand(word string, class argClass) (operand Operand, err error) {
	count := asm.RegisterCount
	if count == 0 {
		count = DefaultRegisterCount
	}

	switch {
	case strings.HasPrefix(word, "[") && strings.HasSuffix(word, "]"):
		inner := word[1 : len(word)-1]
		id, ok := registerID(inner)
		if !ok {
			err = ErrOperandKind
			return
		}
		if id >= count {
			err = ErrRegisterRange
			return
		}
		operand = Operand{Kind: KindIndirect, Value: uint64(id)}

	default:
		if id, ok := registerID(word); ok {
			if id >= count {
				err = ErrRegisterRange
				return
			}
			operand = Operand{Kind: KindRegister, Value: uint64(id)}
			break
		}

		if index, ok := asm.Label[word]; ok {
			operand = Operand{Kind: KindLabel, Value: uint64(index)}
			break
		}

		if identRe.MatchString(word) {
			// A bare identifier with no label declaration.
			err = ErrUndefinedLabel(word)
			return
		}

		var value uint64
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		operand = Operand{Kind: KindImmediate, Value: value}
	}

	if !class.Allows(operand.Kind) {
		err = ErrOperandKind
		return
	}

	return
}
