// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"
	"strings"
)

var _vm_defines = map[string]string{
	"FALSE":   "0",
	"TRUE":    "1",
	"NEWLINE": "10",
	"SPACE":   "32",
}

// Machine is the execution state of the stack machine.
//
// A machine exclusively owns its stack, program counter and output, so
// independent machines may run in parallel. A single machine must not be
// used from more than one goroutine at a time.
type Machine struct {
	Debug  bool        // Set to trace execution.
	Stdout io.Writer   // Destination of PRINT, os.Stdout if nil.
	Logger *log.Logger // Destination of the trace, log.Default() if nil.

	Registry *Registry // Instruction set of the machine.

	Stack Stack // Operand stack.
	Pc    int   // Index of the next instruction to fetch.
	State State // Execution state.
	Ticks int   // Instructions executed since the last reset.

	output []byte // WRITE and WRITE_CHAR accumulator.
}

// NewMachine creates a machine populated with the built-in instruction set.
func NewMachine(debug bool) (m *Machine) {
	m = &Machine{
		Debug:    debug,
		Registry: &Registry{},
	}

	for n, def := range builtins {
		id, err := m.Registry.Register(def)
		if err != nil || id != OpId(n) {
			panic(fmt.Sprintf("builtin %v: id %v, %v", def.Name, id, err))
		}
	}

	return
}

// Defines for the machine, usable as assembler equates.
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_vm_defines)
}

// Reset clears the stack, program counter, output and statistics.
func (m *Machine) Reset() {
	m.Stack.Reset()
	m.Pc = 0
	m.State = STATE_RUNNING
	m.Ticks = 0
	m.output = m.output[:0]
}

// Output returns the text accumulated by WRITE and WRITE_CHAR.
func (m *Machine) Output() string {
	return string(m.output)
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	tos := "-"
	if value, ok := m.Stack.Peek(); ok {
		tos = fmt.Sprintf("%d", int64(value))
	}

	text += fmt.Sprintf("% 6s: %v\n", "state", m.State)
	text += fmt.Sprintf("% 6s: %v\n", "pc", m.Pc)
	text += fmt.Sprintf("% 6s: %v\n", "depth", m.Stack.Depth())
	text += fmt.Sprintf("% 6s: %v\n", "tos", tos)
	text += fmt.Sprintf("% 6s: %v\n", "ticks", m.Ticks)

	return
}

// Assemble a program listing with the instruction set of the machine.
func (m *Machine) Assemble(text string) (prog *Program, err error) {
	asm := &Assembler{Registry: m.Registry}
	for equ, value := range m.Defines() {
		asm.Predefine(equ, value)
	}
	return asm.Parse(strings.NewReader(text))
}

// Disassemble lists the program, one line per instruction. On an
// identifier unknown to the registry, the listing up to that point is
// returned with the error.
func (m *Machine) Disassemble(prog *Program) (listing []string, err error) {
	for pc, ins := range prog.Instructions() {
		name, ok := m.Registry.NameOf(ins.Op)
		if !ok {
			err = &ErrFault{Pc: pc, Name: opName(ins.Op, name), Arg: ins.Arg, Err: ErrDisassembly}
			return
		}
		listing = append(listing, fmt.Sprintf("%04d: %v %d", pc, name, int64(ins.Arg)))
	}

	return
}

func opName(id OpId, name string) string {
	if len(name) == 0 {
		name = fmt.Sprintf("op#%d", int(id))
	}
	return name
}

func (m *Machine) logf(format string, args ...any) {
	logger := m.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf(format, args...)
}

func (m *Machine) stdout() io.Writer {
	if m.Stdout == nil {
		return os.Stdout
	}
	return m.Stdout
}

// Step executes a single instruction of the program.
// done is set when the instruction halted the machine.
func (m *Machine) Step(prog *Program) (done bool, err error) {
	pc := m.Pc
	var def Definition
	var ins Instruction

	defer func() {
		switch {
		case err != nil:
			m.State = STATE_FAULTED
			err = &ErrFault{Pc: pc, Name: opName(ins.Op, def.Name), Arg: ins.Arg, Err: err}
		case done:
			m.State = STATE_HALTED
		}
	}()

	ins, ok := prog.Fetch(pc)
	if !ok {
		err = ErrProgramCounterOverrun
		return
	}

	def, ok = m.Registry.Lookup(ins.Op)
	if !ok {
		err = ErrUnknownInstruction
		return
	}

	// Preconditions are checked before anything is modified.
	if m.Stack.Depth() < def.Depth {
		err = ErrStackUnderflow
		return
	}
	if def.Jump && (ins.Arg < 0 || ins.Arg >= Item(prog.Len())) {
		err = ErrAddressOutOfRange
		return
	}

	if m.Debug {
		m.logf("vm: exec %v arg=%d pc=%d", def.Name, int64(ins.Arg), pc)
	}

	// Advance first, so jumps can overwrite the program counter.
	m.Pc++
	m.Ticks++

	cont, err := def.Handler(m, ins.Arg)
	if err != nil {
		return
	}

	done = !cont
	return
}

// Run executes the program until it halts or faults, returning the top
// of stack and the accumulated output. The stack, program counter and
// output carry over from any previous run; use Reset to clear them.
func (m *Machine) Run(prog *Program) (top Item, output string, err error) {
	m.State = STATE_RUNNING

	if m.Debug {
		m.logf("vm: run %d instructions", prog.Len())
		listing, lerr := m.Disassemble(prog)
		for _, line := range listing {
			m.logf("vm: %v", line)
		}
		if lerr != nil {
			m.logf("vm: %v", lerr)
			m.logf("vm: debug disabled")
			m.Debug = false
		}
	}

	for done := false; !done; {
		done, err = m.Step(prog)
		if err != nil {
			return
		}
	}

	top, ok := m.Stack.Peek()
	if !ok {
		m.State = STATE_FAULTED
		err = ErrStackUnderflow
		return
	}

	output = m.Output()

	if m.Debug {
		m.logf("vm: halt top=%d output=%q", int64(top), output)
	}

	return
}

// Fault returns the fault kind of a Step or Run error, or nil.
func Fault(err error) error {
	kinds := []error{
		ErrStackUnderflow,
		ErrAddressOutOfRange,
		ErrDivisionByZero,
		ErrProgramCounterOverrun,
		ErrUnknownInstruction,
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	var fault *ErrFault
	if errors.As(err, &fault) {
		return fault.Err
	}

	return nil
}
