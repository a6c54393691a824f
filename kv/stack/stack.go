// Package stack implements the per-session operand stack manipulated by
// PUSH/POP/TOP and the arithmetic commands.
package stack

import (
	"github.com/kvstack/tablestore/kv/kverrors"
)

// ValueStack is a LIFO of string values. It is session-local state and is
// not safe for concurrent use; each client connection owns exactly one.
type ValueStack struct {
	values []string
}

func New() *ValueStack {
	return &ValueStack{}
}

func (s *ValueStack) Push(v string) {
	s.values = append(s.values, v)
}

// Top returns the top value without removing it.
func (s *ValueStack) Top() (string, error) {
	if len(s.values) == 0 {
		return "", kverrors.NewOperationError("stack empty")
	}
	return s.values[len(s.values)-1], nil
}

// Pop removes and returns the top value.
func (s *ValueStack) Pop() (string, error) {
	if len(s.values) == 0 {
		return "", kverrors.NewOperationError("stack empty")
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

func (s *ValueStack) IsEmpty() bool {
	return len(s.values) == 0
}

func (s *ValueStack) Len() int {
	return len(s.values)
}
