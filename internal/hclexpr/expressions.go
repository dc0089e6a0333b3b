package hclexpr

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// PreviousFunction is the name of the shift function whose first argument
// names another entry.
const PreviousFunction = "previous"

// TraversalKey generates a stable, canonical string representation for an hcl.Traversal,
// suitable for use as a map key.
func TraversalKey(t hcl.Traversal) string {
	// e.g., revenue.r1 or revenue["1"]
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// PreviousCall is a previous("<address>", ...) call found in an expression.
type PreviousCall struct {
	Target string
	Range  hcl.Range
}

// extractReferencesAndFunctions walks through HCL expressions to find all unique
// variable traversals and function calls. The returned slices are sorted to
// ensure a deterministic order.
func extractReferencesAndFunctions(exprs ...hcl.Expression) ([]hcl.Traversal, []string) {
	traversals := make(map[string]hcl.Traversal)
	functions := make(map[string]struct{})

	for _, expr := range exprs {
		if expr == nil {
			continue
		}

		// Use the built-in Variables() method for robust variable collection.
		for _, traversal := range expr.Variables() {
			key := TraversalKey(traversal)
			traversals[key] = traversal
		}

		// Walk the syntax tree to find what Variables() doesn't give us: function calls.
		if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
			walkCalls(syntaxExpr, func(call *hclsyntax.FunctionCallExpr) {
				functions[call.Name] = struct{}{}
			})
		}
	}

	traversalKeys := make([]string, 0, len(traversals))
	for k := range traversals {
		traversalKeys = append(traversalKeys, k)
	}
	sort.Strings(traversalKeys)

	traversalSlice := make([]hcl.Traversal, 0, len(traversals))
	for _, k := range traversalKeys {
		traversalSlice = append(traversalSlice, traversals[k])
	}

	functionSlice := make([]string, 0, len(functions))
	for f := range functions {
		functionSlice = append(functionSlice, f)
	}
	sort.Strings(functionSlice)

	return traversalSlice, functionSlice
}

// extractPreviousCalls returns the targets of every previous() call. The
// target must be a literal string; anything else is reported as a diagnostic.
func extractPreviousCalls(exprs ...hcl.Expression) ([]PreviousCall, hcl.Diagnostics) {
	var calls []PreviousCall
	var diags hcl.Diagnostics

	for _, expr := range exprs {
		syntaxExpr, ok := expr.(hclsyntax.Expression)
		if !ok {
			continue
		}
		walkCalls(syntaxExpr, func(call *hclsyntax.FunctionCallExpr) {
			if call.Name != PreviousFunction {
				return
			}
			target, targetDiags := literalTarget(call)
			diags = append(diags, targetDiags...)
			if !targetDiags.HasErrors() {
				calls = append(calls, PreviousCall{Target: target, Range: call.Range()})
			}
		})
	}
	return calls, diags
}

func literalTarget(call *hclsyntax.FunctionCallExpr) (string, hcl.Diagnostics) {
	if len(call.Args) == 0 {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing previous() target",
			Detail:   "previous() takes the address of an entry as its first argument, e.g. previous(\"revenue.r1\").",
			Subject:  call.Range().Ptr(),
		}}
	}

	arg := call.Args[0]
	if len(arg.Variables()) == 0 {
		v, diags := arg.Value(nil)
		if !diags.HasErrors() && v.IsWhollyKnown() && !v.IsNull() && v.Type() == cty.String {
			return v.AsString(), nil
		}
	}
	return "", hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid previous() target",
		Detail:   fmt.Sprintf("The first argument of %s() must be a literal string address.", PreviousFunction),
		Subject:  arg.Range().Ptr(),
	}}
}

// walkCalls recursively walks the AST and reports every function call.
func walkCalls(expr hclsyntax.Expression, visit func(*hclsyntax.FunctionCallExpr)) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		visit(e)
		for _, arg := range e.Args {
			walkCalls(arg, visit)
		}
	case *hclsyntax.BinaryOpExpr:
		walkCalls(e.LHS, visit)
		walkCalls(e.RHS, visit)
	case *hclsyntax.ConditionalExpr:
		walkCalls(e.Condition, visit)
		walkCalls(e.TrueResult, visit)
		walkCalls(e.FalseResult, visit)
	case *hclsyntax.UnaryOpExpr:
		walkCalls(e.Val, visit)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkCalls(part, visit)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkCalls(e.Wrapped, visit)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkCalls(item, visit)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			walkCalls(item.KeyExpr, visit)
			walkCalls(item.ValueExpr, visit)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		walkCalls(e.Wrapped, visit)
	case *hclsyntax.ForExpr:
		walkCalls(e.CollExpr, visit)
		walkCalls(e.KeyExpr, visit)
		walkCalls(e.ValExpr, visit)
		walkCalls(e.CondExpr, visit)
	case *hclsyntax.IndexExpr:
		walkCalls(e.Collection, visit)
		walkCalls(e.Key, visit)
	case *hclsyntax.RelativeTraversalExpr:
		walkCalls(e.Source, visit)
	case *hclsyntax.SplatExpr:
		walkCalls(e.Source, visit)
		walkCalls(e.Each, visit)
	case *hclsyntax.ParenthesesExpr:
		walkCalls(e.Expression, visit)
	}
}
