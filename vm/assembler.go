// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var (
	charRe  = regexp.MustCompile(`'\\?[^']'`)
	parenRe = regexp.MustCompile(`\$\([^\$]*\)`)
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Assembler is a single pass assembler for the stack machine.
//
// Each non-empty line holds one instruction mnemonic and at most one
// integer argument, separated by spaces. Instructions are addressed by
// their zero-based index in the listing.
type Assembler struct {
	Verbose  bool      // If set, verbosely logs the assembler actions.
	Registry *Registry // Instruction set to assemble against.
	Opcode   []Opcode  // List of generated opcodes.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of jump labels to opcode indexes.
	Equate    map[string]string // Map of equates.
}

// Assemble converts a program listing into a Program, using the registry
// to resolve mnemonics.
func Assemble(reg *Registry, text string) (prog *Program, err error) {
	asm := &Assembler{Registry: reg}
	return asm.Parse(strings.NewReader(text))
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 10, 64)
		if perr != nil {
			// Ignore non-integer equates. They may be labels.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = errors.Join(ErrParseExpression(expr), err)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// charEval replaces a quoted character with its character code.
func charEval(word string) string {
	str := word[1 : len(word)-1]
	if str[0] == '\\' {
		str = str[1:]
		switch str {
		case "\\":
			str = "\\"
		case "n":
			str = "\n"
		case "r":
			str = "\r"
		case "e":
			str = "\033"
		default:
			return word
		}
	} else if len(str) != 1 {
		return word
	}
	return fmt.Sprintf("%v", str[0])
}

// parseLine expands a single line into words.
// Equates and labels are consumed here.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line = charRe.ReplaceAllStringFunc(line, charEval)

	line = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = errors.Join(ErrMalformedInstruction, _err)
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !identRe.MatchString(label) {
			err = errors.Join(ErrLabelInvalid, ErrMnemonic(label))
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = len(asm.Opcode)
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	return
}

// argument parses an instruction argument, which is either a base 10
// integer or a label to be linked.
func (asm *Assembler) argument(word string) (arg Item, label string, err error) {
	v64, err := strconv.ParseInt(word, 10, 64)
	if err == nil {
		arg = Item(v64)
		return
	}

	if identRe.MatchString(word) {
		label = word
		err = nil
		return
	}

	err = errors.Join(ErrMalformedInstruction, ErrParseNumber(word), err)
	return
}

// parseWords assembles the words of a line into an opcode.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	if len(words) > 2 {
		err = errors.Join(ErrMalformedInstruction, ErrExtraArgs)
		return
	}

	id, err := asm.Registry.IdOf(words[0])
	if err != nil {
		return
	}

	var arg Item
	var label string
	if len(words) == 2 {
		arg, label, err = asm.argument(words[1])
		if err != nil {
			return
		}
	}

	asm.Opcode = append(asm.Opcode, Opcode{
		LineNo:      lineno,
		Words:       words,
		LinkLabel:   label,
		Instruction: Instruction{Op: id, Arg: arg},
	})

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.Registry == nil {
		asm.Registry = NewMachine(false).Registry
	}

	asm.Opcode = asm.Opcode[:0]
	asm.Label = make(map[string]int, 16)
	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = make(map[string]string, 16)
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		ip, ok := asm.Label[op.LinkLabel]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = errors.Join(ErrMalformedInstruction, ErrLabelMissing(op.LinkLabel))
			return
		}
		op.Arg = Item(ip)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
