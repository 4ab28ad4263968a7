// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"fmt"
	"strconv"
)

// builtins is the standard instruction set, in OpId order.
var builtins = []Definition{
	{Name: "LOAD_CONST", Handler: opLoadConst},
	{Name: "PRINT", Handler: opPrint, Depth: 1},
	{Name: "EXIT", Handler: opExit, Depth: 1},
	{Name: "POP", Handler: opPop, Depth: 1},
	{Name: "ADD", Handler: opAdd, Depth: 2},
	{Name: "DIV", Handler: opDiv, Depth: 2},
	{Name: "EQ", Handler: opEq, Depth: 2},
	{Name: "NEQ", Handler: opNeq, Depth: 2},
	{Name: "DUP", Handler: opDup, Depth: 1},
	{Name: "JMP", Handler: opJmp, Jump: true},
	{Name: "JMPZ", Handler: opJmpz, Depth: 1, Jump: true},
	{Name: "WRITE", Handler: opWrite, Depth: 1},
	{Name: "WRITE_CHAR", Handler: opWriteChar, Depth: 1},
}

// pop2 removes the top two items; a is the former top of stack.
func (m *Machine) pop2() (a, b Item) {
	a, _ = m.Stack.Pop()
	b, _ = m.Stack.Pop()
	return
}

func boolItem(value bool) Item {
	if value {
		return 1
	}
	return 0
}

func opLoadConst(m *Machine, arg Item) (bool, error) {
	m.Stack.Push(arg)
	return true, nil
}

func opPrint(m *Machine, _ Item) (bool, error) {
	tos, _ := m.Stack.Peek()
	_, err := fmt.Fprintln(m.stdout(), int64(tos))
	return err == nil, err
}

func opExit(m *Machine, _ Item) (bool, error) {
	return false, nil
}

func opPop(m *Machine, _ Item) (bool, error) {
	m.Stack.Pop()
	return true, nil
}

func opAdd(m *Machine, _ Item) (bool, error) {
	a, b := m.pop2()
	m.Stack.Push(a + b)
	return true, nil
}

func opDiv(m *Machine, _ Item) (bool, error) {
	if divisor, _ := m.Stack.Peek(); divisor == 0 {
		return false, ErrDivisionByZero
	}
	a, b := m.pop2()
	m.Stack.Push(b / a)
	return true, nil
}

func opEq(m *Machine, _ Item) (bool, error) {
	a, b := m.pop2()
	m.Stack.Push(boolItem(a == b))
	return true, nil
}

func opNeq(m *Machine, _ Item) (bool, error) {
	a, b := m.pop2()
	m.Stack.Push(boolItem(a != b))
	return true, nil
}

func opDup(m *Machine, _ Item) (bool, error) {
	tos, _ := m.Stack.Peek()
	m.Stack.Push(tos)
	return true, nil
}

func opJmp(m *Machine, address Item) (bool, error) {
	m.Pc = int(address)
	return true, nil
}

func opJmpz(m *Machine, address Item) (bool, error) {
	tos, _ := m.Stack.Pop()
	if tos == 0 {
		m.Pc = int(address)
	}
	return true, nil
}

func opWrite(m *Machine, _ Item) (bool, error) {
	tos, _ := m.Stack.Peek()
	m.output = strconv.AppendInt(m.output, int64(tos), 10)
	return true, nil
}

func opWriteChar(m *Machine, _ Item) (bool, error) {
	tos, _ := m.Stack.Peek()
	m.output = append(m.output, byte(tos))
	return true, nil
}
