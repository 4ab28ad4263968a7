// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"fmt"
)

// Item is the only value type of the machine.
type Item int64

// OpId is the numeric identifier of a registered instruction.
type OpId int

// Built-in instruction identifiers, in registration order.
const (
	OP_LOAD_CONST = OpId(iota)
	OP_PRINT
	OP_EXIT
	OP_POP
	OP_ADD
	OP_DIV
	OP_EQ
	OP_NEQ
	OP_DUP
	OP_JMP
	OP_JMPZ
	OP_WRITE
	OP_WRITE_CHAR
)

// Instruction is an opcode identifier and its argument.
type Instruction struct {
	Op  OpId
	Arg Item
}

// String returns the numeric form of the instruction.
func (ins Instruction) String() string {
	return fmt.Sprintf("%02x:%d", int(ins.Op), int64(ins.Arg))
}

// State is the execution state of a machine.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
	STATE_FAULTED = State(2) // faulted
)
