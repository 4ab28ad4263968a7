package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, prog.Len())
	assert.Equal(0, len(asm.Label))
	assert.Equal("", asm.Equate["LINENO"])
	assert.NotNil(asm.Registry)
}

func opEqual(t *testing.T, expected []Instruction, prog *Program) {
	assert := assert.New(t)

	assert.Equal(len(expected), prog.Len())
	if len(expected) == prog.Len() {
		for pc, ins := range prog.Instructions() {
			assert.Equal(expected[pc], ins, "pc %d", pc)
		}
	}
}

func TestAssemblerListing(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(false)

	program := []string{
		"LOAD_CONST 5",
		"LOAD_CONST 0",
		"DIV",
		"PRINT",
		"EXIT",
	}

	prog, err := m.Assemble(strings.Join(program, "\n"))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Instruction{
		{OP_LOAD_CONST, 5},
		{OP_LOAD_CONST, 0},
		{OP_DIV, 0},
		{OP_PRINT, 0},
		{OP_EXIT, 0},
	}

	opEqual(t, expected, prog)

	for n, op := range prog.Opcodes {
		assert.Equal(n+1, op.LineNo)
		assert.Equal(program[n], strings.Join(op.Words, " "))
	}
}

func TestAssemblerArguments(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"LOAD_CONST -17",
		"LOAD_CONST +4",
		"LOAD_CONST  9",
		"LOAD_CONST 9223372036854775807",
		"LOAD_CONST -9223372036854775808",
		"JMP 0",
	}

	prog, err := Assemble(NewMachine(false).Registry, strings.Join(program, "\n"))
	assert.NoError(err)

	expected := []Instruction{
		{OP_LOAD_CONST, -17},
		{OP_LOAD_CONST, 4},
		{OP_LOAD_CONST, 9},
		{OP_LOAD_CONST, 9223372036854775807},
		{OP_LOAD_CONST, -9223372036854775808},
		{OP_JMP, 0},
	}

	opEqual(t, expected, prog)
}

func TestAssemblerBlankAndComments(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"; countdown",
		"",
		"LOAD_CONST 1 ; one",
		"   ",
		"EXIT",
		"",
	}

	prog, err := Assemble(nil, strings.Join(program, "\r\n"))
	assert.NoError(err)

	opEqual(t, []Instruction{{OP_LOAD_CONST, 1}, {OP_EXIT, 0}}, prog)
	assert.Equal(3, prog.Opcodes[0].LineNo)
	assert.Equal(5, prog.Opcodes[1].LineNo)
}

func TestAssemblerErrors(t *testing.T) {
	table := [](struct {
		name   string
		source string
		lineno int
		kind   error
		detail error
	}){
		{"extra", "LOAD_CONST 1\nLOAD_CONST 1 2", 2, ErrMalformedInstruction, ErrExtraArgs},
		{"extra-nop", "EXIT 1 2 3", 1, ErrMalformedInstruction, ErrExtraArgs},
		{"unknown", "EXIT\nHALT", 2, ErrUnknownInstruction, ErrMnemonic("HALT")},
		{"case", "load_const 1", 1, ErrUnknownInstruction, ErrMnemonic("load_const")},
		{"number", "LOAD_CONST 12x", 1, ErrMalformedInstruction, ErrParseNumber("12x")},
		{"hex", "LOAD_CONST 0x10", 1, ErrMalformedInstruction, ErrParseNumber("0x10")},
		{"range", "LOAD_CONST 9223372036854775808", 1, ErrMalformedInstruction, ErrParseNumber("9223372036854775808")},
		{"label", "EXIT\n\nJMP nowhere", 3, ErrMalformedInstruction, ErrLabelMissing("nowhere")},
		{"label-dup", "a: EXIT\na: EXIT", 2, ErrLabelDuplicate, ErrLabelDuplicate},
		{"label-bad", "1a: EXIT", 1, ErrLabelInvalid, ErrLabelInvalid},
		{"equ", ".equ N", 1, ErrEquateSyntax, ErrEquateSyntax},
		{"equ-dup", ".equ N 1\n.equ N 2", 2, ErrEquateDuplicate, ErrEquateDuplicate},
		{"expr", "LOAD_CONST $(1 +)", 1, ErrMalformedInstruction, ErrParseExpression("1 +")},
		{"expr-type", "LOAD_CONST $(\"x\")", 1, ErrMalformedInstruction, ErrParseExpression("\"x\"")},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			prog, err := Assemble(nil, entry.source)
			assert.Nil(prog)
			assert.True(errors.Is(err, entry.kind), "%v", err)
			assert.True(errors.Is(err, entry.detail), "%v", err)

			var syntax *ErrSyntax
			if assert.True(errors.As(err, &syntax)) {
				assert.Equal(entry.lineno, syntax.LineNo)
			}
		})
	}
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"start:",
		"  LOAD_CONST 3",
		"loop: DUP",
		"  JMPZ done",
		"  JMP loop",
		"done: finish: EXIT",
		"  JMP start",
	}

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	assert.Equal(map[string]int{"start": 0, "loop": 1, "done": 4, "finish": 4}, asm.Label)

	expected := []Instruction{
		{OP_LOAD_CONST, 3},
		{OP_DUP, 0},
		{OP_JMPZ, 4},
		{OP_JMP, 1},
		{OP_EXIT, 0},
		{OP_JMP, 0},
	}

	opEqual(t, expected, prog)
	assert.Equal("done", prog.Opcodes[2].LinkLabel)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".equ COUNT 42",
		".equ TARGET end",
		"LOAD_CONST COUNT",
		"LOAD_CONST 'A'",
		"LOAD_CONST '\\n'",
		"LOAD_CONST $(COUNT * 2 + 1)",
		"LOAD_CONST $(-COUNT)",
		"LOAD_CONST LINENO",
		"LOAD_CONST BASE",
		"JMP TARGET",
		"end: EXIT",
	}

	asm := &Assembler{}
	asm.Predefine("BASE", "100")
	asm.Predefine("BASE", "200")

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	expected := []Instruction{
		{OP_LOAD_CONST, 42},
		{OP_LOAD_CONST, 65},
		{OP_LOAD_CONST, 10},
		{OP_LOAD_CONST, 85},
		{OP_LOAD_CONST, -42},
		{OP_LOAD_CONST, 8},
		{OP_LOAD_CONST, 200},
		{OP_JMP, 8},
		{OP_EXIT, 0},
	}

	opEqual(t, expected, prog)
}

func TestAssemblerReuse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Parse(strings.NewReader(".equ N 1\nx: LOAD_CONST N\nEXIT"))
	assert.NoError(err)

	// Equates and labels do not leak between listings.
	prog, err := asm.Parse(strings.NewReader(".equ N 2\nx: LOAD_CONST N\nEXIT"))
	assert.NoError(err)
	opEqual(t, []Instruction{{OP_LOAD_CONST, 2}, {OP_EXIT, 0}}, prog)
}

func TestAssemblerCustomRegistry(t *testing.T) {
	assert := assert.New(t)

	reg := &Registry{}
	_, err := reg.Register(Definition{Name: "NOP", Handler: nop})
	assert.NoError(err)

	prog, err := Assemble(reg, "NOP\nNOP 3")
	assert.NoError(err)
	opEqual(t, []Instruction{{0, 0}, {0, 3}}, prog)

	_, err = Assemble(reg, "EXIT")
	assert.True(errors.Is(err, ErrUnknownInstruction))
}
