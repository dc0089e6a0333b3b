package node

import (
	"github.com/zclconf/go-cty/cty"
)

// Evaluate computes the node at step t using DefaultMaxDepth.
func (n *Node) Evaluate(t int) (cty.Value, error) {
	return n.EvaluateWithLimit(t, DefaultMaxDepth)
}

// EvaluateWithLimit computes the node at step t. Every nested evaluation
// (operands, self calls, shifts, scope lookups) spends one unit of maxDepth; running out
// yields a *RecursionError. A non-positive maxDepth means DefaultMaxDepth.
//
// Nothing is cached unless the tree contains a memo node: a recursive leaf
// re-derives every earlier step it depends on, on every call.
func (n *Node) EvaluateWithLimit(t, maxDepth int) (cty.Value, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	ev := &evaluation{maxDepth: maxDepth}
	return ev.eval(n, t)
}

// evaluation carries the depth budget of a single top-level call.
type evaluation struct {
	maxDepth int
	depth    int
}

func (ev *evaluation) eval(n *Node, t int) (cty.Value, error) {
	if ev.depth >= ev.maxDepth {
		return cty.NilVal, &RecursionError{MaxDepth: ev.maxDepth, Step: t}
	}
	ev.depth++
	defer func() { ev.depth-- }()

	switch n.kind {
	case KindLeaf:
		return ev.call(n, t, unavailableSelf)
	case KindRecursive:
		return ev.call(n, t, ev.self(n))
	case KindUnary:
		v, err := ev.eval(n.left, t)
		if err != nil {
			return cty.NilVal, err
		}
		return n.op.unary(v)
	case KindBinary:
		l, err := ev.eval(n.left, t)
		if err != nil {
			return cty.NilVal, err
		}
		r, err := ev.eval(n.right, t)
		if err != nil {
			return cty.NilVal, err
		}
		return n.op.binary(l, r)
	case KindShift:
		return ev.direct(n.left, t-n.shift)
	case KindMemo:
		return ev.memoized(n, t)
	default:
		panic("node: unknown kind " + n.kind.String())
	}
}

// self is the handle given to a recursive leaf. It re-enters the same node
// within the same budget.
func (ev *evaluation) self(n *Node) Self {
	return func(t int) (cty.Value, error) {
		return ev.eval(n, t)
	}
}

// direct evaluates the node's own function without threading a self
// handle. A recursive leaf reached this way gets a handle that only fails.
func (ev *evaluation) direct(n *Node, t int) (cty.Value, error) {
	switch n.kind {
	case KindRecursive:
		if ev.depth >= ev.maxDepth {
			return cty.NilVal, &RecursionError{MaxDepth: ev.maxDepth, Step: t}
		}
		ev.depth++
		defer func() { ev.depth-- }()
		return ev.call(n, t, unavailableSelf)
	case KindMemo:
		return ev.direct(n.left, t)
	default:
		return ev.eval(n, t)
	}
}

// call runs a leaf's own function with the given self handle.
func (ev *evaluation) call(n *Node, t int, self Self) (cty.Value, error) {
	switch {
	case n.sfn != nil:
		return n.sfn(t, self, ev.eval)
	case n.rfn != nil:
		return n.rfn(t, self)
	default:
		return n.fn(t)
	}
}

func unavailableSelf(int) (cty.Value, error) {
	return cty.NilVal, ErrSelfUnavailable
}

func (ev *evaluation) memoized(n *Node, t int) (cty.Value, error) {
	if v, ok := n.memo.Load(t); ok {
		return v, nil
	}

	inner := n.left
	var (
		v   cty.Value
		err error
	)
	if inner.kind == KindRecursive {
		v, err = ev.call(inner, t, ev.self(n))
	} else {
		v, err = ev.eval(inner, t)
	}
	if err != nil {
		return cty.NilVal, err
	}
	n.memo.Save(t, v)
	return v, nil
}
