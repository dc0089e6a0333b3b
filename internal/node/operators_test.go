package node

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestBinaryOperators(t *testing.T) {
	type opFunc func(a, b any) (*Node, error)

	testCases := []struct {
		name     string
		op       opFunc
		node     float64
		scalar   float64
		expected float64
		// nodeOnLeft is the expected result when the node is the left operand
		// and the scalar the right one.
		nodeOnLeft float64
	}{
		{name: "add", op: Add, node: 1, scalar: 1, expected: 2, nodeOnLeft: 2},
		{name: "sub", op: Sub, node: 1, scalar: 2, expected: 1, nodeOnLeft: -1},
		{name: "mul", op: Mul, node: 2, scalar: 2, expected: 4, nodeOnLeft: 4},
		{name: "div", op: Div, node: 2, scalar: 4, expected: 2, nodeOnLeft: 0.5},
		{name: "floordiv", op: FloorDiv, node: 2, scalar: 5, expected: 2, nodeOnLeft: 0},
		{name: "pow", op: Pow, node: 3, scalar: 2, expected: 8, nodeOnLeft: 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			operands := []struct {
				name string
				v    any
			}{
				{name: "int", v: int(tc.scalar)},
				{name: "float", v: tc.scalar},
				{name: "node", v: constNode(t, tc.scalar)},
			}

			for _, operand := range operands {
				t.Run("scalar "+operand.name+" on the left", func(t *testing.T) {
					n, err := tc.op(operand.v, constNode(t, tc.node))
					require.NoError(t, err)

					v, err := n.Evaluate(0)
					require.NoError(t, err)
					requireNumber(t, tc.expected, v)
				})

				t.Run("scalar "+operand.name+" on the right", func(t *testing.T) {
					n, err := tc.op(constNode(t, tc.node), operand.v)
					require.NoError(t, err)

					v, err := n.Evaluate(0)
					require.NoError(t, err)
					requireNumber(t, tc.nodeOnLeft, v)
				})
			}
		})
	}
}

func TestSub_OrderSensitivity(t *testing.T) {
	two := constNode(t, 2)

	left, err := Sub(5, two)
	require.NoError(t, err)
	right, err := Sub(two, 5)
	require.NoError(t, err)

	v, err := left.Evaluate(0)
	require.NoError(t, err)
	requireNumber(t, 3, v)

	v, err = right.Evaluate(0)
	require.NoError(t, err)
	requireNumber(t, -3, v)
}

func TestSumAndProductOfConstants(t *testing.T) {
	testCases := []struct {
		c1, c2 float64
	}{
		{c1: 0, c2: 0},
		{c1: 1.5, c2: -4},
		{c1: 1000, c2: 250},
	}

	for _, tc := range testCases {
		sum := Must(Add(constNode(t, tc.c1), constNode(t, tc.c2)))
		product := Must(Mul(constNode(t, tc.c1), constNode(t, tc.c2)))

		for step := 0; step < 5; step++ {
			v, err := sum.Evaluate(step)
			require.NoError(t, err)
			requireNumber(t, tc.c1+tc.c2, v)

			v, err = product.Evaluate(step)
			require.NoError(t, err)
			requireNumber(t, tc.c1*tc.c2, v)
		}
	}
}

func TestNegate(t *testing.T) {
	n, err := Negate(constNode(t, 1))
	require.NoError(t, err)

	v, err := n.Evaluate(0)
	require.NoError(t, err)
	requireNumber(t, -1, v)
}

func TestLogicalOperators(t *testing.T) {
	yes := Must(FromFunc(func(int) bool { return true }))
	no := Must(FromFunc(func(int) bool { return false }))

	v, err := Must(And(yes, yes)).Evaluate(0)
	require.NoError(t, err)
	assert.True(t, v.True())

	v, err = Must(And(yes, no)).Evaluate(0)
	require.NoError(t, err)
	assert.False(t, v.True())

	v, err = Must(Or(yes, no)).Evaluate(0)
	require.NoError(t, err)
	assert.True(t, v.True())

	v, err = Must(Or(false, no)).Evaluate(0)
	require.NoError(t, err)
	assert.False(t, v.True())
}

func TestComposition_IsLazy(t *testing.T) {
	calls := 0
	counted := Must(New(func(t int) (cty.Value, error) {
		calls++
		return cty.NumberIntVal(int64(t)), nil
	}))

	n := Must(Add(Must(Mul(counted, 2)), counted)).Previous(1)
	assert.Zero(t, calls, "building a composite must not evaluate anything")

	v, err := n.Evaluate(4)
	require.NoError(t, err)
	requireNumber(t, 9, v)
	assert.Equal(t, 2, calls)
}

func TestOperandTypeErrors(t *testing.T) {
	var nilNode *Node

	testCases := []struct {
		name      string
		build     func() (*Node, error)
		position  int
		expectMsg string
	}{
		{
			name:      "slice on the right",
			build:     func() (*Node, error) { return Add(constNode(t, 1), []int{1}) },
			position:  2,
			expectMsg: "add: unsupported operand 2 of type []int",
		},
		{
			name:      "map on the left",
			build:     func() (*Node, error) { return Sub(map[string]int{}, constNode(t, 1)) },
			position:  1,
			expectMsg: "sub: unsupported operand 1 of type map[string]int",
		},
		{
			name:      "struct operand to negate",
			build:     func() (*Node, error) { return Negate(struct{}{}) },
			position:  1,
			expectMsg: "negate: unsupported operand 1 of type struct {}",
		},
		{
			name:      "nil node",
			build:     func() (*Node, error) { return Mul(nilNode, 2) },
			position:  1,
			expectMsg: "mul: operand 1 is a nil *node.Node",
		},
		{
			name:      "function operand",
			build:     func() (*Node, error) { return Pow(2, func() {}) },
			position:  2,
			expectMsg: "pow: unsupported operand 2 of type func()",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := tc.build()
			require.Error(t, err)
			assert.Nil(t, n)

			var opErr *OperandTypeError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, tc.position, opErr.Position)
			assert.EqualError(t, err, tc.expectMsg)
		})
	}
}

func TestNumericDomainErrors_SurfaceAtEvaluation(t *testing.T) {
	t.Run("zero divided by zero", func(t *testing.T) {
		n, err := Div(constNode(t, 0), 0)
		require.NoError(t, err, "composition never inspects values")

		_, err = n.Evaluate(0)
		assert.ErrorContains(t, err, "can't divide zero by zero")
	})

	t.Run("division by zero is not special cased", func(t *testing.T) {
		n := Must(Div(constNode(t, 1), 0))

		v, err := n.Evaluate(0)
		require.NoError(t, err)
		f, _ := v.AsBigFloat().Float64()
		assert.True(t, math.IsInf(f, 1))
	})

	t.Run("logical op on numbers", func(t *testing.T) {
		n, err := And(constNode(t, 1), true)
		require.NoError(t, err)

		_, err = n.Evaluate(0)
		assert.Error(t, err)
	})

	t.Run("arithmetic on strings", func(t *testing.T) {
		word := Must(FromFunc(func(int) string { return "ten" }))
		n := Must(Add(word, 1))

		_, err := n.Evaluate(0)
		assert.Error(t, err)
	})
}

func TestErrorsPropagateUnwrapped(t *testing.T) {
	boom := errors.New("boom")
	failing := Must(New(func(int) (cty.Value, error) { return cty.NilVal, boom }))

	n := Must(Negate(Must(Add(1, failing))))
	_, err := n.Evaluate(0)
	assert.Same(t, boom, err)
}

func TestPrevious(t *testing.T) {
	identity := Must(FromFunc(func(t int) int { return t }))

	v, err := identity.Previous(DefaultShift).Evaluate(1)
	require.NoError(t, err)
	requireNumber(t, 0, v)

	v, err = identity.Previous(2).Evaluate(1)
	require.NoError(t, err)
	requireNumber(t, -1, v)

	for step := 0; step < 6; step++ {
		shifted, err := identity.Previous(3).Evaluate(step)
		require.NoError(t, err)
		original, err := identity.Evaluate(step - 3)
		require.NoError(t, err)
		assert.True(t, original.RawEquals(shifted))
	}
}

func TestPrevious_BypassesSelfReference(t *testing.T) {
	baseCaseOnly := Must(NewRecursive(func(t int, self Self) (cty.Value, error) {
		if t <= 0 {
			return cty.NumberIntVal(100), nil
		}
		return self(t - 1)
	}))

	v, err := baseCaseOnly.Previous(1).Evaluate(1)
	require.NoError(t, err, "the base case never touches self")
	requireNumber(t, 100, v)

	_, err = baseCaseOnly.Previous(1).Evaluate(3)
	assert.ErrorIs(t, err, ErrSelfUnavailable)

	composite := Must(Add(baseCaseOnly, 1)).Previous(1)
	v, err = composite.Evaluate(3)
	require.NoError(t, err, "operands of a shifted composite keep their own self handle")
	requireNumber(t, 101, v)
}

func TestMemoize(t *testing.T) {
	calls := 0
	line := Must(NewRecursive(func(t int, self Self) (cty.Value, error) {
		calls++
		if t == 0 {
			return cty.Zero, nil
		}
		prev, err := self(t - 1)
		if err != nil {
			return cty.NilVal, err
		}
		return prev.Add(cty.NumberIntVal(int64(t))), nil
	}))

	_, err := line.Evaluate(20)
	require.NoError(t, err)
	assert.Equal(t, 21, calls)

	memo := Memoize(line)
	assert.Equal(t, KindMemo, memo.Kind())
	assert.True(t, memo.IsSelfReferencing())
	assert.Same(t, memo, Memoize(memo))

	calls = 0
	for step := 0; step <= 20; step++ {
		v, err := memo.Evaluate(step)
		require.NoError(t, err)
		requireNumber(t, float64(step*(step+1)/2), v)
	}
	assert.Equal(t, 21, calls, "each step is computed once")

	v, err := line.Evaluate(3)
	require.NoError(t, err)
	requireNumber(t, 6, v)
}

func TestMemoize_DoesNotCacheErrors(t *testing.T) {
	fail := true
	n := Memoize(Must(New(func(t int) (cty.Value, error) {
		if fail {
			return cty.NilVal, errors.New("not yet")
		}
		return cty.NumberIntVal(int64(t)), nil
	})))

	_, err := n.Evaluate(1)
	require.Error(t, err)

	fail = false
	v, err := n.Evaluate(1)
	require.NoError(t, err)
	requireNumber(t, 1, v)
}
