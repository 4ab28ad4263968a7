// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"iter"
)

// Opcode is an assembled instruction and the source it came from.
type Opcode struct {
	LineNo    int      // Source line number, 0 if not assembled from text.
	Words     []string // Source words after equate substitution.
	LinkLabel string   // Label to resolve into Arg at link time.
	Instruction
}

// Program is an immutable sequence of instructions indexed by program counter.
type Program struct {
	Opcodes []Opcode
}

// NewProgram creates a program from bare instructions.
func NewProgram(code ...Instruction) (prog *Program) {
	prog = &Program{
		Opcodes: make([]Opcode, len(code)),
	}
	for n, ins := range code {
		prog.Opcodes[n].Instruction = ins
	}

	return
}

// Len returns the number of instructions in the program.
func (prog *Program) Len() int {
	return len(prog.Opcodes)
}

// Fetch returns the instruction at pc.
func (prog *Program) Fetch(pc int) (ins Instruction, ok bool) {
	if pc < 0 || pc >= len(prog.Opcodes) {
		return
	}

	return prog.Opcodes[pc].Instruction, true
}

// Debug returns the opcode at pc, or nil.
func (prog *Program) Debug(pc int) (op *Opcode) {
	if pc < 0 || pc >= len(prog.Opcodes) {
		return
	}

	return &prog.Opcodes[pc]
}

// Instructions iterates over the program by address.
func (prog *Program) Instructions() iter.Seq2[int, Instruction] {
	return func(yield func(pc int, ins Instruction) bool) {
		for pc, op := range prog.Opcodes {
			if !yield(pc, op.Instruction) {
				return
			}
		}
	}
}
