// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"errors"

	"github.com/ezrec/stackvm/translate"
)

var f = translate.From

var (
	// Registry errors
	ErrUnknownInstruction   = errors.New(f("unknown instruction"))
	ErrInstructionDuplicate = errors.New(f("instruction duplicated"))
	ErrInstructionInvalid   = errors.New(f("instruction invalid"))

	// Machine faults
	ErrStackUnderflow        = errors.New(f("stack underflow"))
	ErrAddressOutOfRange     = errors.New(f("address out of range"))
	ErrDivisionByZero        = errors.New(f("division by zero"))
	ErrProgramCounterOverrun = errors.New(f("program counter overrun"))
	ErrDisassembly           = errors.New(f("could not disassemble"))

	// Assembler errors
	ErrMalformedInstruction = errors.New(f("malformed instruction"))
	ErrExtraArgs            = errors.New(f("more than one argument"))
	ErrEquateSyntax         = errors.New(f(".equ syntax"))
	ErrEquateDuplicate      = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate       = errors.New(f("label duplicated"))
	ErrLabelInvalid         = errors.New(f("label invalid"))
)

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrMnemonic names the mnemonic an error refers to.
type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("mnemonic '%v'", string(err))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax locates an assembler error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrFault is a runtime fault raised by the instruction at Pc.
type ErrFault struct {
	Pc   int
	Name string
	Arg  Item
	Err  error
}

func (err *ErrFault) Error() string {
	return f("pc %d %v %d: %v", err.Pc, err.Name, err.Arg, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}
