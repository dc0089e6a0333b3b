package hclexpr

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/cashgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// AddressOf converts a reference traversal into an entry address. It accepts
// `name`, `section.member` and `section["member"]`; further steps are
// rejected, since every entry evaluates to a scalar.
func AddressOf(traversal hcl.Traversal) (*nodeid.Address, hcl.Diagnostics) {
	if len(traversal) == 0 || traversal.IsRelative() {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   "A reference must start with the name of an entry.",
		}}
	}

	names := []string{traversal.RootName()}
	for _, step := range traversal[1:] {
		var name string
		switch s := step.(type) {
		case hcl.TraverseAttr:
			name = s.Name
		case hcl.TraverseIndex:
			switch {
			case s.Key.Type() == cty.String && s.Key.IsKnown() && !s.Key.IsNull():
				name = s.Key.AsString()
			case s.Key.Type() == cty.Number && s.Key.IsKnown() && !s.Key.IsNull():
				name = s.Key.AsBigFloat().Text('f', -1)
				if !s.Key.AsBigFloat().IsInt() || s.Key.AsBigFloat().Cmp(big.NewFloat(0)) < 0 {
					return nil, invalidStep(traversal, step)
				}
			default:
				return nil, invalidStep(traversal, step)
			}
		default:
			return nil, invalidStep(traversal, step)
		}
		names = append(names, name)
	}

	if len(names) > nodeid.MaxDepth {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   fmt.Sprintf("%q is too deep: entries are referenced as name or section.member.", TraversalKey(traversal)),
			Subject:  traversal.SourceRange().Ptr(),
		}}
	}
	return nodeid.New(names...), nil
}

func invalidStep(traversal hcl.Traversal, step hcl.Traverser) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid reference",
		Detail:   fmt.Sprintf("Unsupported step in reference %q.", TraversalKey(traversal)),
		Subject:  step.SourceRange().Ptr(),
	}}
}
