// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package vm implements a table driven stack machine and its assembler.
//
// The machine manipulates signed 64-bit items on an operand stack. Each
// instruction is a registered mnemonic bound to a handler, plus the
// precondition checks (stack depth, jump address range) that the machine
// enforces before dispatch. A fresh machine is populated with the built-in
// instruction set: stack ops, arithmetic, comparisons, jumps and output.
//
// The assembler converts a textual listing, one instruction and at most one
// integer argument per line, into a Program of instructions addressed by
// zero-based index. It also supports comments, labels, equates, character
// literals and compile-time $(...) expressions.
package vm
