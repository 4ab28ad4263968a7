// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator runs assembled listings on a stack machine, reporting
// faults against the source line that raised them.
package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"math"

	"github.com/ezrec/stackvm/internal"
	"github.com/ezrec/stackvm/vm"
)

var _emulator_defines = map[string]string{
	"ITEM_MAX": fmt.Sprintf("%d", int64(math.MaxInt64)),
	"ITEM_MIN": fmt.Sprintf("%d", int64(math.MinInt64)),
}

// Emulator state. Machine + loaded program.
type Emulator struct {
	Verbose     bool        // If set, enables verbose assembler logging.
	*vm.Machine             // Reference to the machine simulation.
	Program     *vm.Program // Reference to the currently loaded program listing.

	defines map[string]string // User defines, applied after the built-in ones.
}

// NewEmulator creates a new emulator with the built-in instruction set.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: vm.NewMachine(false),
		Program: &vm.Program{},
	}

	return
}

// opcodes yields an OP_<NAME> define for each registered instruction.
func (emu *Emulator) opcodes() iter.Seq2[string, string] {
	return func(yield func(name, value string) bool) {
		for id, name := range emu.Machine.Registry.All() {
			if !yield("OP_"+name, fmt.Sprintf("%d", int(id))) {
				return
			}
		}
	}
}

// Define adds an equate to every listing loaded afterwards, replacing any
// built-in define of the same name.
func (emu *Emulator) Define(name string, value string) {
	if emu.defines == nil {
		emu.defines = make(map[string]string, 4)
	}
	emu.defines[name] = value
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Machine.Defines(),
		emu.opcodes(),
		maps.All(emu.defines),
	)
}

// Load assembles a listing and resets the machine to run it.
func (emu *Emulator) Load(input io.Reader) (err error) {
	asm := &vm.Assembler{
		Verbose:  emu.Verbose,
		Registry: emu.Machine.Registry,
	}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog

	return emu.Reset()
}

// Reset the machine state.
func (emu *Emulator) Reset() (err error) {
	emu.Machine.Reset()

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Machine.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() int {
	return emu.Machine.Pc
}

// lineOf returns the source line number of the instruction at pc.
func (emu *Emulator) lineOf(pc int) int {
	op := emu.Program.Debug(pc)
	if op == nil {
		return 0
	}

	return op.LineNo
}

// LineNo returns the line number of the next instruction to execute.
func (emu *Emulator) LineNo() int {
	return emu.lineOf(emu.Machine.Pc)
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	done, err = emu.Machine.Step(emu.Program)

	return
}

// Run executes the loaded program until it halts or faults.
func (emu *Emulator) Run() (top vm.Item, output string, err error) {
	top, output, err = emu.Machine.Run(emu.Program)
	if err != nil {
		lineno := 0
		var fault *vm.ErrFault
		if errors.As(err, &fault) {
			lineno = emu.lineOf(fault.Pc)
		}
		err = &ErrRuntime{LineNo: lineno, Err: err}
	}

	return
}
