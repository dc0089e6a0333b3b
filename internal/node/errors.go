package node

import (
	"errors"
	"fmt"
)

var (
	// ErrRecursionExhausted is matched by every *RecursionError.
	ErrRecursionExhausted = errors.New("recursion exhausted")

	// ErrSelfUnavailable is returned by the self handle given to a recursive
	// function that is being evaluated through a shifted view.
	ErrSelfUnavailable = errors.New("self reference is not available in a shifted view")
)

// ValidationError reports a function that cannot back a Node.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid node function: " + e.Reason
}

// OperandTypeError reports an operand that is neither a Node nor a scalar.
type OperandTypeError struct {
	Op       string
	Position int
	Value    any
}

func (e *OperandTypeError) Error() string {
	if n, ok := e.Value.(*Node); ok && n == nil {
		return fmt.Sprintf("%s: operand %d is a nil *node.Node", e.Op, e.Position)
	}
	return fmt.Sprintf("%s: unsupported operand %d of type %T", e.Op, e.Position, e.Value)
}

// RecursionError is returned when evaluation nests deeper than the configured
// budget, which is what a self reference without a reachable base case does.
type RecursionError struct {
	MaxDepth int
	// Step is the time index being evaluated when the budget ran out.
	Step int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("recursion exhausted: evaluation depth exceeded %d (at t=%d)", e.MaxDepth, e.Step)
}

func (e *RecursionError) Unwrap() error {
	return ErrRecursionExhausted
}
