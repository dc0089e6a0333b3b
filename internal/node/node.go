package node

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/cashgrid/internal/memostore"
	"github.com/zclconf/go-cty/cty"
)

// DefaultMaxDepth is the evaluation depth budget used by Evaluate.
const DefaultMaxDepth = 10000

// Func computes a value for the time step t.
type Func func(t int) (cty.Value, error)

// Self re-enters the Node that owns it at another time step.
type Self func(t int) (cty.Value, error)

// RecursiveFunc computes a value for t and may consult its own Node at other
// steps through self.
type RecursiveFunc func(t int, self Self) (cty.Value, error)

// Scope evaluates another node at step t within the caller's depth budget.
type Scope func(n *Node, t int) (cty.Value, error)

// ScopedFunc computes a value for t and may evaluate other nodes through
// scope. self fails with ErrSelfUnavailable unless the node was created as
// recursive.
type ScopedFunc func(t int, self Self, scope Scope) (cty.Value, error)

// Kind tags the shape of a Node.
type Kind int

const (
	KindLeaf Kind = iota
	KindRecursive
	KindUnary
	KindBinary
	KindShift
	KindMemo
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindRecursive:
		return "recursive"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	case KindShift:
		return "shift"
	case KindMemo:
		return "memo"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is an immutable, lazily evaluated expression over a time step.
// Composite nodes share their operands by reference.
type Node struct {
	kind Kind

	fn  Func
	rfn RecursiveFunc
	sfn ScopedFunc

	op    *operator
	left  *Node
	right *Node

	shift int
	memo  memostore.Store
}

// New returns a plain leaf backed by fn.
func New(fn Func) (*Node, error) {
	if fn == nil {
		return nil, &ValidationError{Reason: "function is nil"}
	}
	return &Node{kind: KindLeaf, fn: fn}, nil
}

// NewRecursive returns a self-referencing leaf backed by fn.
func NewRecursive(fn RecursiveFunc) (*Node, error) {
	if fn == nil {
		return nil, &ValidationError{Reason: "function is nil"}
	}
	return &Node{kind: KindRecursive, rfn: fn}, nil
}

// NewScoped returns a leaf backed by fn. The leaf is self-referencing when
// recursive is set.
func NewScoped(fn ScopedFunc, recursive bool) (*Node, error) {
	if fn == nil {
		return nil, &ValidationError{Reason: "function is nil"}
	}
	if recursive {
		return &Node{kind: KindRecursive, sfn: fn}, nil
	}
	return &Node{kind: KindLeaf, sfn: fn}, nil
}

// Const returns a leaf that yields v at every step.
func Const(v any) (*Node, error) {
	val, ok := scalar(v)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("constant of type %T is not a scalar", v)}
	}
	return constant(val), nil
}

func constant(v cty.Value) *Node {
	return &Node{kind: KindLeaf, fn: func(int) (cty.Value, error) { return v, nil }}
}

var (
	intType   = reflect.TypeOf(0)
	selfType  = reflect.TypeOf(Self(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// FromFunc adapts an ordinary Go function. fn must take (int) or (int, Self)
// and return a scalar, optionally followed by an error. The number of
// parameters selects the flavor.
func FromFunc(fn any) (*Node, error) {
	if fn == nil {
		return nil, &ValidationError{Reason: "function is nil"}
	}
	switch f := fn.(type) {
	case Func:
		return New(f)
	case func(int) (cty.Value, error):
		return New(f)
	case RecursiveFunc:
		return NewRecursive(f)
	case func(int, Self) (cty.Value, error):
		return NewRecursive(f)
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, &ValidationError{Reason: fmt.Sprintf("%T is not a function", fn)}
	}
	if rv.IsNil() {
		return nil, &ValidationError{Reason: "function is nil"}
	}
	rt := rv.Type()
	if rt.IsVariadic() {
		return nil, &ValidationError{Reason: "variadic functions are not supported"}
	}

	switch rt.NumIn() {
	case 1, 2:
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("function takes %d parameters; want (t) or (t, self)", rt.NumIn())}
	}
	if rt.In(0) != intType {
		return nil, &ValidationError{Reason: fmt.Sprintf("first parameter is %s; want int", rt.In(0))}
	}
	if rt.NumIn() == 2 && rt.In(1) != selfType {
		return nil, &ValidationError{Reason: fmt.Sprintf("second parameter is %s; want node.Self", rt.In(1))}
	}

	switch {
	case rt.NumOut() == 1:
	case rt.NumOut() == 2 && rt.Out(1) == errorType:
	default:
		return nil, &ValidationError{Reason: "function must return a value, or a value and an error"}
	}

	call := func(args ...reflect.Value) (cty.Value, error) {
		out := rv.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return cty.NilVal, out[1].Interface().(error)
		}
		val, ok := scalar(out[0].Interface())
		if !ok {
			return cty.NilVal, fmt.Errorf("function returned unsupported value of type %s", out[0].Type())
		}
		return val, nil
	}

	if rt.NumIn() == 1 {
		return New(func(t int) (cty.Value, error) {
			return call(reflect.ValueOf(t))
		})
	}
	return NewRecursive(func(t int, self Self) (cty.Value, error) {
		return call(reflect.ValueOf(t), reflect.ValueOf(self))
	})
}

// Must panics if err is non-nil.
func Must(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}

// Kind reports the shape of the node.
func (n *Node) Kind() Kind {
	return n.kind
}

// IsSelfReferencing reports whether the node's own function receives a self
// handle. A memoized recursive leaf is self-referencing too.
func (n *Node) IsSelfReferencing() bool {
	switch n.kind {
	case KindRecursive:
		return true
	case KindMemo:
		return n.left.IsSelfReferencing()
	default:
		return false
	}
}

// Operands returns the direct children of a composite node.
func (n *Node) Operands() []*Node {
	switch n.kind {
	case KindUnary, KindShift, KindMemo:
		return []*Node{n.left}
	case KindBinary:
		return []*Node{n.left, n.right}
	default:
		return nil
	}
}

// String renders the tree. Leaves are identified by their address.
func (n *Node) String() string {
	var sb strings.Builder
	n.format(&sb)
	return sb.String()
}

func (n *Node) format(sb *strings.Builder) {
	switch n.kind {
	case KindLeaf, KindRecursive:
		fmt.Fprintf(sb, "%s@%p", n.kind, n)
	case KindUnary:
		sb.WriteString(n.op.name)
		sb.WriteByte('(')
		n.left.format(sb)
		sb.WriteByte(')')
	case KindBinary:
		sb.WriteByte('(')
		n.left.format(sb)
		sb.WriteString(" " + n.op.symbol + " ")
		n.right.format(sb)
		sb.WriteByte(')')
	case KindShift:
		sb.WriteString("previous(")
		n.left.format(sb)
		fmt.Fprintf(sb, ", %d)", n.shift)
	case KindMemo:
		sb.WriteString("memo(")
		n.left.format(sb)
		sb.WriteByte(')')
	}
}
