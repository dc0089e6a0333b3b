package hcl

import (
	"fmt"
	"sort"

	"github.com/vk/cashgrid/internal/node"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

const (
	// selfFunction evaluates the calling item at another step.
	selfFunction = "self"
	// previousFunction evaluates another entry a number of steps back.
	previousFunction = "previous"
)

// floorDivFunc divides two numbers and rounds toward negative infinity.
var floorDivFunc = function.New(&function.Spec{
	Description: "Divides a by b and rounds the quotient down.",
	Params: []function.Parameter{
		{Name: "a", Type: cty.Number},
		{Name: "b", Type: cty.Number},
	},
	Type:         function.StaticReturnType(cty.Number),
	RefineResult: func(b *cty.RefinementBuilder) *cty.RefinementBuilder { return b.NotNull() },
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return node.FloorDivide(args[0], args[1])
	},
})

// staticFunctions are available to every expression.
var staticFunctions = map[string]function.Function{
	"abs":      stdlib.AbsoluteFunc,
	"ceil":     stdlib.CeilFunc,
	"coalesce": stdlib.CoalesceFunc,
	"floor":    stdlib.FloorFunc,
	"floordiv": floorDivFunc,
	"format":   stdlib.FormatFunc,
	"int":      stdlib.IntFunc,
	"log":      stdlib.LogFunc,
	"lower":    stdlib.LowerFunc,
	"max":      stdlib.MaxFunc,
	"min":      stdlib.MinFunc,
	"pow":      stdlib.PowFunc,
	"signum":   stdlib.SignumFunc,
	"upper":    stdlib.UpperFunc,
}

// isKnownFunction reports whether expressions may call name.
func isKnownFunction(name string) bool {
	if name == selfFunction || name == previousFunction {
		return true
	}
	_, ok := staticFunctions[name]
	return ok
}

// knownFunctions lists every callable name, sorted.
func knownFunctions() []string {
	names := []string{selfFunction, previousFunction}
	for name := range staticFunctions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stepArg converts a function argument to a step offset.
func stepArg(fn string, v cty.Value) (int, error) {
	if v.IsNull() {
		return 0, fmt.Errorf("%s(): step must not be null", fn)
	}
	var k int
	if err := gocty.FromCtyValue(v, &k); err != nil {
		return 0, fmt.Errorf("%s(): step must be a whole number: %w", fn, err)
	}
	return k, nil
}

// selfFunc exposes the evaluator's self handle as a cty function.
func (ev *evaluator) selfFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Evaluates the calling item at step t.",
		Params:      []function.Parameter{{Name: "t", Type: cty.Number}},
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			k, err := stepArg(selfFunction, args[0])
			if err != nil {
				return cty.NilVal, err
			}
			return ev.callSelf(k)
		},
	})
}

// previousFunc exposes shifted lookups of other entries as a cty function.
func (ev *evaluator) previousFunc() function.Function {
	return function.New(&function.Spec{
		Description: "Evaluates the entry at address k steps before the current one.",
		Params:      []function.Parameter{{Name: "address", Type: cty.String}},
		VarParam:    &function.Parameter{Name: "k", Type: cty.Number},
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			k := node.DefaultShift
			switch len(args) {
			case 1:
			case 2:
				var err error
				if k, err = stepArg(previousFunction, args[1]); err != nil {
					return cty.NilVal, err
				}
			default:
				return cty.NilVal, fmt.Errorf("%s(): takes an address and at most one step count", previousFunction)
			}
			return ev.callPrevious(args[0].AsString(), k)
		},
	})
}
