package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/cashgrid/internal/hclexpr"
	"github.com/vk/cashgrid/internal/node"
	"github.com/vk/cashgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

// evaluator computes one expression at one step. Only the branches an
// expression actually takes are evaluated: conditionals pick one side,
// && and || short-circuit, and referenced entries are evaluated on demand
// through the node scope.
type evaluator struct {
	entry *entry
	nodes map[string]*node.Node
	t     int
	self  node.Self
	scope node.Scope

	// err is the first failure raised by self() or previous(). It is
	// returned in place of the diagnostics hcl wraps it in.
	err error
}

// leafFunc returns the node function evaluating e. nodes must hold every
// entry of the model by the time the node is evaluated.
func leafFunc(e *entry, nodes map[string]*node.Node) node.ScopedFunc {
	return func(t int, self node.Self, scope node.Scope) (cty.Value, error) {
		ev := &evaluator{entry: e, nodes: nodes, t: t, self: self, scope: scope}
		v, err := ev.eval(e.expr)
		if err != nil {
			return cty.NilVal, err
		}
		return checkResult(e, v)
	}
}

// checkResult accepts known scalars and null.
func checkResult(e *entry, v cty.Value) (cty.Value, error) {
	switch {
	case !v.IsWhollyKnown():
		return cty.NilVal, diagError("Unknown value",
			fmt.Sprintf("The value of %s could not be determined.", e.id), e.expr.Range())
	case v.IsNull():
		return v, nil
	case !v.Type().IsPrimitiveType():
		return cty.NilVal, diagError("Unsupported value",
			fmt.Sprintf("The value of %s must be a number, bool or string, not %s.", e.id, v.Type().FriendlyName()), e.expr.Range())
	}
	return v, nil
}

func diagError(summary, detail string, rng hcl.Range) error {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	}}
}

func (ev *evaluator) eval(expr hcl.Expression) (cty.Value, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return e.Val, nil
	case *hclsyntax.ScopeTraversalExpr:
		return ev.reference(e.Traversal)
	case *hclsyntax.ParenthesesExpr:
		return ev.eval(e.Expression)
	case *hclsyntax.TemplateWrapExpr:
		return ev.eval(e.Wrapped)
	case *hclsyntax.ConditionalExpr:
		return ev.conditional(e)
	case *hclsyntax.BinaryOpExpr:
		return ev.binary(e)
	case *hclsyntax.UnaryOpExpr:
		return ev.unary(e)
	case *hclsyntax.FunctionCallExpr:
		if !e.ExpandFinal {
			return ev.call(e)
		}
	}
	return ev.delegate(expr)
}

// reference evaluates t or a referenced entry at the current step.
func (ev *evaluator) reference(traversal hcl.Traversal) (cty.Value, error) {
	if isStepVariable(traversal) {
		return cty.NumberIntVal(int64(ev.t)), nil
	}
	addr, ok := ev.entry.refs[hclexpr.TraversalKey(traversal)]
	if !ok {
		return cty.NilVal, diagError("Unknown reference",
			fmt.Sprintf("%q is not an entry of this model.", hclexpr.TraversalKey(traversal)), traversal.SourceRange())
	}
	n, ok := ev.nodes[addr.String()]
	if !ok {
		return cty.NilVal, diagError("Unknown reference",
			fmt.Sprintf("%q has not been built.", addr), traversal.SourceRange())
	}
	return ev.scope(n, ev.t)
}

// operand evaluates expr and converts it to ty.
func (ev *evaluator) operand(expr hclsyntax.Expression, ty cty.Type, what string) (cty.Value, error) {
	v, err := ev.eval(expr)
	if err != nil {
		return cty.NilVal, err
	}
	converted, convErr := convert.Convert(v, ty)
	if convErr != nil {
		return cty.NilVal, diagError("Invalid operand",
			fmt.Sprintf("Unsuitable value for %s: %s.", what, convErr), expr.Range())
	}
	if !converted.IsKnown() {
		return cty.NilVal, diagError("Unknown value",
			fmt.Sprintf("The %s could not be determined.", what), expr.Range())
	}
	return converted, nil
}

func (ev *evaluator) conditional(e *hclsyntax.ConditionalExpr) (cty.Value, error) {
	cond, err := ev.operand(e.Condition, cty.Bool, "condition")
	if err != nil {
		return cty.NilVal, err
	}
	if cond.IsNull() {
		return cty.NilVal, diagError("Null condition",
			"The condition value is null. Conditions must either be true or false.", e.Condition.Range())
	}
	if cond.True() {
		return ev.eval(e.TrueResult)
	}
	return ev.eval(e.FalseResult)
}

func (ev *evaluator) binary(e *hclsyntax.BinaryOpExpr) (cty.Value, error) {
	params := e.Op.Impl.Params()

	lhs, err := ev.operand(e.LHS, params[0].Type, "left operand")
	if err != nil {
		return cty.NilVal, err
	}
	if e.Op == hclsyntax.OpLogicalOr || e.Op == hclsyntax.OpLogicalAnd {
		if lhs.IsNull() {
			return cty.NilVal, diagError("Invalid operand", "The left operand must not be null.", e.LHS.Range())
		}
		if e.Op == hclsyntax.OpLogicalOr && lhs.True() {
			return cty.True, nil
		}
		if e.Op == hclsyntax.OpLogicalAnd && lhs.False() {
			return cty.False, nil
		}
	}

	rhs, err := ev.operand(e.RHS, params[1].Type, "right operand")
	if err != nil {
		return cty.NilVal, err
	}

	result, err := e.Op.Impl.Call([]cty.Value{lhs, rhs})
	if err != nil {
		return cty.NilVal, diagError("Operation failed", fmt.Sprintf("Error during operation: %s.", err), e.SrcRange)
	}
	return result, nil
}

func (ev *evaluator) unary(e *hclsyntax.UnaryOpExpr) (cty.Value, error) {
	v, err := ev.operand(e.Val, e.Op.Impl.Params()[0].Type, "operand")
	if err != nil {
		return cty.NilVal, err
	}
	result, err := e.Op.Impl.Call([]cty.Value{v})
	if err != nil {
		return cty.NilVal, diagError("Operation failed", fmt.Sprintf("Error during operation: %s.", err), e.SrcRange)
	}
	return result, nil
}

func (ev *evaluator) call(e *hclsyntax.FunctionCallExpr) (cty.Value, error) {
	fn, ok := ev.function(e.Name)
	if !ok {
		return cty.NilVal, diagError("Call to unknown function",
			fmt.Sprintf("There is no function named %q.", e.Name), e.NameRange)
	}

	params := fn.Params()
	varParam := fn.VarParam()
	args := make([]cty.Value, len(e.Args))
	for i, argExpr := range e.Args {
		ty := cty.DynamicPseudoType
		switch {
		case i < len(params):
			ty = params[i].Type
		case varParam != nil:
			ty = varParam.Type
		}
		v, err := ev.operand(argExpr, ty, fmt.Sprintf("argument %d of %s()", i+1, e.Name))
		if err != nil {
			return cty.NilVal, err
		}
		args[i] = v
	}

	result, err := fn.Call(args)
	if err != nil {
		if ev.err != nil {
			return cty.NilVal, ev.err
		}
		return cty.NilVal, diagError("Error in function call",
			fmt.Sprintf("Call to function %q failed: %s.", e.Name, err), e.Range())
	}
	return result, nil
}

// delegate lets hcl evaluate expressions the evaluator has no lazy form
// for, such as templates. Only the entries expr references are evaluated.
func (ev *evaluator) delegate(expr hcl.Expression) (cty.Value, error) {
	ctx, err := ev.context(expr.Variables())
	if err != nil {
		return cty.NilVal, err
	}
	v, diags := expr.Value(ctx)
	if diags.HasErrors() {
		if ev.err != nil {
			return cty.NilVal, ev.err
		}
		return cty.NilVal, diags
	}
	return v, nil
}

func (ev *evaluator) context(traversals []hcl.Traversal) (*hcl.EvalContext, error) {
	vars := make(map[string]cty.Value)
	sections := make(map[string]map[string]cty.Value)

	for _, traversal := range traversals {
		v, err := ev.reference(traversal)
		if err != nil {
			return nil, err
		}
		if isStepVariable(traversal) {
			vars[stepVariable] = v
			continue
		}
		addr := ev.entry.refs[hclexpr.TraversalKey(traversal)]
		if addr.Member() == "" {
			vars[addr.Entry()] = v
			continue
		}
		if sections[addr.Entry()] == nil {
			sections[addr.Entry()] = make(map[string]cty.Value)
		}
		sections[addr.Entry()][addr.Member()] = v
	}
	for name, members := range sections {
		vars[name] = cty.ObjectVal(members)
	}

	funcs := make(map[string]function.Function, len(staticFunctions)+2)
	for name, fn := range staticFunctions {
		funcs[name] = fn
	}
	funcs[selfFunction] = ev.selfFunc()
	funcs[previousFunction] = ev.previousFunc()

	return &hcl.EvalContext{Variables: vars, Functions: funcs}, nil
}

func (ev *evaluator) function(name string) (function.Function, bool) {
	switch name {
	case selfFunction:
		return ev.selfFunc(), true
	case previousFunction:
		return ev.previousFunc(), true
	}
	fn, ok := staticFunctions[name]
	return fn, ok
}

func (ev *evaluator) callSelf(k int) (cty.Value, error) {
	v, err := ev.self(k)
	if err != nil {
		return cty.NilVal, ev.fail(err)
	}
	return v, nil
}

func (ev *evaluator) callPrevious(target string, k int) (cty.Value, error) {
	addr, err := nodeid.Parse(target)
	if err != nil {
		return cty.NilVal, ev.fail(fmt.Errorf("%s(): %w", previousFunction, err))
	}
	n, ok := ev.nodes[addr.String()]
	if !ok {
		return cty.NilVal, ev.fail(fmt.Errorf("%s(): %q is not an entry of this model", previousFunction, target))
	}
	v, err := ev.scope(n.Previous(k), ev.t)
	if err != nil {
		return cty.NilVal, ev.fail(err)
	}
	return v, nil
}

// fail records the first error raised inside a function and returns it.
func (ev *evaluator) fail(err error) error {
	if ev.err == nil {
		ev.err = err
	}
	return err
}
