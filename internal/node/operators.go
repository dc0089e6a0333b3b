package node

import (
	"math/big"

	"github.com/vk/cashgrid/internal/memostore"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// DefaultShift is the step distance used by previous() when none is given.
const DefaultShift = 1

type operator struct {
	name   string
	symbol string
	unary  func(v cty.Value) (cty.Value, error)
	binary func(l, r cty.Value) (cty.Value, error)
}

var (
	opNegate   = &operator{name: "negate", symbol: "-", unary: stdlib.Negate}
	opAdd      = &operator{name: "add", symbol: "+", binary: stdlib.Add}
	opSub      = &operator{name: "sub", symbol: "-", binary: stdlib.Subtract}
	opMul      = &operator{name: "mul", symbol: "*", binary: stdlib.Multiply}
	opDiv      = &operator{name: "div", symbol: "/", binary: stdlib.Divide}
	opFloorDiv = &operator{name: "floordiv", symbol: "//", binary: FloorDivide}
	opPow      = &operator{name: "pow", symbol: "**", binary: stdlib.Pow}
	opAnd      = &operator{name: "and", symbol: "&", binary: stdlib.And}
	opOr       = &operator{name: "or", symbol: "|", binary: stdlib.Or}
)

// FloorDivide divides l by r and rounds the quotient toward negative infinity.
func FloorDivide(l, r cty.Value) (cty.Value, error) {
	q, err := stdlib.Divide(l, r)
	if err != nil {
		return cty.NilVal, err
	}
	return stdlib.Floor(q)
}

// Negate returns a node evaluating to -a(t).
func Negate(a any) (*Node, error) {
	operand, err := operandNode(opNegate, 1, a)
	if err != nil {
		return nil, err
	}
	return &Node{kind: KindUnary, op: opNegate, left: operand}, nil
}

// Add returns a node evaluating to a(t) + b(t).
func Add(a, b any) (*Node, error) { return binary(opAdd, a, b) }

// Sub returns a node evaluating to a(t) - b(t).
func Sub(a, b any) (*Node, error) { return binary(opSub, a, b) }

// Mul returns a node evaluating to a(t) * b(t).
func Mul(a, b any) (*Node, error) { return binary(opMul, a, b) }

// Div returns a node evaluating to a(t) / b(t).
func Div(a, b any) (*Node, error) { return binary(opDiv, a, b) }

// FloorDiv returns a node evaluating to floor(a(t) / b(t)).
func FloorDiv(a, b any) (*Node, error) { return binary(opFloorDiv, a, b) }

// Pow returns a node evaluating to a(t) raised to b(t).
func Pow(a, b any) (*Node, error) { return binary(opPow, a, b) }

// And returns a node evaluating to a(t) && b(t). Both operands are always
// evaluated.
func And(a, b any) (*Node, error) { return binary(opAnd, a, b) }

// Or returns a node evaluating to a(t) || b(t). Both operands are always
// evaluated.
func Or(a, b any) (*Node, error) { return binary(opOr, a, b) }

func binary(op *operator, a, b any) (*Node, error) {
	left, err := operandNode(op, 1, a)
	if err != nil {
		return nil, err
	}
	right, err := operandNode(op, 2, b)
	if err != nil {
		return nil, err
	}
	return &Node{kind: KindBinary, op: op, left: left, right: right}, nil
}

// Previous returns a view of n shifted k steps into the past. The view calls
// n's own function at t-k without a working self handle.
func (n *Node) Previous(k int) *Node {
	return &Node{kind: KindShift, left: n, shift: k}
}

// Memoize returns a node caching n's results per step. When n is a recursive
// leaf its self handle goes through the cache as well. Failed evaluations
// are not cached.
func Memoize(n *Node) *Node {
	if n.kind == KindMemo {
		return n
	}
	return &Node{kind: KindMemo, left: n, memo: memostore.New()}
}

func operandNode(op *operator, pos int, v any) (*Node, error) {
	if n, ok := v.(*Node); ok {
		if n == nil {
			return nil, &OperandTypeError{Op: op.name, Position: pos, Value: v}
		}
		return n, nil
	}
	val, ok := scalar(v)
	if !ok {
		return nil, &OperandTypeError{Op: op.name, Position: pos, Value: v}
	}
	return constant(val), nil
}

// scalar converts v into a primitive cty value. A nil interface is the
// absent payload.
func scalar(v any) (cty.Value, bool) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), true
	case cty.Value:
		if x == cty.NilVal {
			return cty.NilVal, false
		}
		return x, true
	case *Node:
		return cty.NilVal, false
	case *big.Float:
		if x == nil {
			return cty.NilVal, false
		}
		return cty.NumberVal(x), true
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil || !ty.IsPrimitiveType() {
		return cty.NilVal, false
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return cty.NilVal, false
	}
	return val, true
}
