// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"errors"
	"iter"
)

// Handler executes an instruction against the machine state.
// Returning cont == false halts the machine.
type Handler func(m *Machine, arg Item) (cont bool, err error)

// Definition describes a registered instruction.
type Definition struct {
	Name    string  // Mnemonic, matched case sensitively by the assembler.
	Handler Handler // Executable behavior.
	Depth   int     // Minimum stack depth required before dispatch.
	Jump    bool    // If set, the argument must be a valid program address.
}

// Registry maps mnemonics to opcode identifiers and handlers.
// Identifiers are assigned from zero in registration order, and
// instructions are never removed.
type Registry struct {
	ids  map[string]OpId
	defs []Definition
}

// Register assigns the next opcode identifier to the definition.
func (reg *Registry) Register(def Definition) (id OpId, err error) {
	if len(def.Name) == 0 || def.Handler == nil || def.Depth < 0 {
		err = errors.Join(ErrInstructionInvalid, ErrMnemonic(def.Name))
		return
	}

	if _, ok := reg.ids[def.Name]; ok {
		err = errors.Join(ErrInstructionDuplicate, ErrMnemonic(def.Name))
		return
	}

	if reg.ids == nil {
		reg.ids = make(map[string]OpId, 16)
	}

	id = OpId(len(reg.defs))
	reg.ids[def.Name] = id
	reg.defs = append(reg.defs, def)

	return
}

// IdOf returns the opcode identifier of a mnemonic.
func (reg *Registry) IdOf(name string) (id OpId, err error) {
	id, ok := reg.ids[name]
	if !ok {
		err = errors.Join(ErrUnknownInstruction, ErrMnemonic(name))
	}

	return
}

// Lookup returns the definition of an opcode identifier.
func (reg *Registry) Lookup(id OpId) (def Definition, ok bool) {
	if id < 0 || int(id) >= len(reg.defs) {
		return
	}

	return reg.defs[id], true
}

// NameOf returns the mnemonic of an opcode identifier.
func (reg *Registry) NameOf(id OpId) (name string, ok bool) {
	def, ok := reg.Lookup(id)
	return def.Name, ok
}

// HandlerOf returns the handler of an opcode identifier.
func (reg *Registry) HandlerOf(id OpId) (handler Handler, ok bool) {
	def, ok := reg.Lookup(id)
	return def.Handler, ok
}

// Len returns the number of registered instructions.
func (reg *Registry) Len() int {
	return len(reg.defs)
}

// All iterates over the registered instructions in identifier order.
func (reg *Registry) All() iter.Seq2[OpId, string] {
	return func(yield func(id OpId, name string) bool) {
		for n, def := range reg.defs {
			if !yield(OpId(n), def.Name) {
				return
			}
		}
	}
}
