package vm

// Stack is the operand stack of a machine.
type Stack struct {
	Data []Item
}

func (s *Stack) Push(value Item) {
	s.Data = append(s.Data, value)
}

func (s *Stack) Pop() (value Item, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

// Depth is the number of items on the stack.
func (s *Stack) Depth() int {
	return len(s.Data)
}

func (s *Stack) Peek() (value Item, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
