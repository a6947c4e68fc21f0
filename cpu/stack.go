package cpu

const (
	// DefaultStackSize is the call stack capacity when none is configured.
	DefaultStackSize = 1024
)

// Stack is the fixed-capacity call stack. It holds return addresses for
// CALL/RET and values for PUSH/POP, and is distinct from RAM.
type Stack struct {
	Limit int
	Data  []uint64
}

// NewStack creates a stack with the given capacity, or DefaultStackSize
// when limit is not positive.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultStackSize
	}
	return &Stack{Limit: limit}
}

func (s *Stack) Push(value uint64) (ok bool) {
	if s.Full() {
		return false
	}
	s.Data = append(s.Data, value)
	return true
}

func (s *Stack) Pop() (value uint64, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Data = s.Data[:len(s.Data)-1]
	}
	return
}

func (s *Stack) Peek() (value uint64, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *Stack) Empty() bool {
	return len(s.Data) == 0
}

func (s *Stack) Full() bool {
	return len(s.Data) == s.Limit
}

// Depth returns the number of entries currently on the stack.
func (s *Stack) Depth() int {
	return len(s.Data)
}

func (s *Stack) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}
