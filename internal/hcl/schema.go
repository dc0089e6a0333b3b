package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// fileRoot is the set of top-level blocks accepted in any model file.
type fileRoot struct {
	Models   []*modelBlock   `hcl:"model,block"`
	Sections []*sectionBlock `hcl:"section,block"`
	Items    []*itemBlock    `hcl:"item,block"`
}

// modelBlock names the model and, optionally, the number of steps to run.
type modelBlock struct {
	Name      string    `hcl:"name,label"`
	Steps     *int      `hcl:"steps,optional"`
	DeclRange hcl.Range `hcl:",def_range"`
}

// sectionBlock groups items under a name and combines them into an output.
type sectionBlock struct {
	Name      string         `hcl:"name,label"`
	Items     []*itemBlock   `hcl:"item,block"`
	Output    *hcl.Attribute `hcl:"output,optional"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

// itemBlock is a single line item. Value is nil when the block omits it.
type itemBlock struct {
	Name      string         `hcl:"name,label"`
	Value     *hcl.Attribute `hcl:"value"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

// validate reports the required arguments gohcl cannot enforce on its own.
func (r *fileRoot) validate() hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, it := range r.Items {
		diags = append(diags, it.validate()...)
	}
	for _, s := range r.Sections {
		for _, it := range s.Items {
			diags = append(diags, it.validate()...)
		}
	}
	return diags
}

func (b *itemBlock) validate() hcl.Diagnostics {
	if b.Value != nil {
		return nil
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Missing required argument",
		Detail:   fmt.Sprintf("The argument %q is required in item %q, but no definition was found.", "value", b.Name),
		Subject:  b.DeclRange.Ptr(),
	}}
}
