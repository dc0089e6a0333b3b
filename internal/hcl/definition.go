package hcl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/cashgrid/internal/dag"
	"github.com/vk/cashgrid/internal/hclexpr"
	"github.com/vk/cashgrid/internal/model"
	"github.com/vk/cashgrid/internal/node"
	"github.com/vk/cashgrid/internal/nodeid"
)

// stepVariable holds the current step in every expression.
const stepVariable = "t"

// reservedNames cannot name a top-level entry.
var reservedNames = map[string]struct{}{
	stepVariable: {},
	selfFunction: {},
}

// entry is one expression of the model: a top-level item, a section item
// or a section output.
type entry struct {
	id        string
	addr      *nodeid.Address
	expr      hcl.Expression
	recursive bool
	// refs maps each reference in expr to the entry it names.
	refs map[string]*nodeid.Address
}

// declaration is a top-level block: exactly one of section and item is set.
type declaration struct {
	name    string
	section *sectionBlock
	item    *itemBlock
	rng     hcl.Range
}

// definition accumulates the blocks of every file before the model is built.
type definition struct {
	model *modelBlock

	order []string
	decls map[string]*declaration

	entryOrder []string
	entries    map[string]*entry

	graph *dag.Graph
}

func newDefinition() *definition {
	return &definition{
		decls:   make(map[string]*declaration),
		entries: make(map[string]*entry),
		graph:   dag.New(),
	}
}

// merge adds the blocks of one file, keeping their order within the file.
func (d *definition) merge(root *fileRoot) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, b := range root.Models {
		diags = append(diags, d.mergeModelBlock(b)...)
	}

	decls := make([]*declaration, 0, len(root.Sections)+len(root.Items))
	for _, s := range root.Sections {
		decls = append(decls, &declaration{name: s.Name, section: s, rng: s.DeclRange})
	}
	for _, it := range root.Items {
		decls = append(decls, &declaration{name: it.Name, item: it, rng: it.DeclRange})
	}
	sort.SliceStable(decls, func(i, j int) bool {
		return decls[i].rng.Start.Byte < decls[j].rng.Start.Byte
	})

	for _, decl := range decls {
		diags = append(diags, d.declare(decl)...)
	}
	return diags
}

func (d *definition) mergeModelBlock(b *modelBlock) hcl.Diagnostics {
	if d.model != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Duplicate model block",
			Detail:   fmt.Sprintf("A model block was already declared at %s.", d.model.DeclRange),
			Subject:  b.DeclRange.Ptr(),
		}}
	}
	if b.Steps != nil && *b.Steps < 0 {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid steps",
			Detail:   fmt.Sprintf("steps must not be negative, got %d.", *b.Steps),
			Subject:  b.DeclRange.Ptr(),
		}}
	}
	d.model = b
	return nil
}

func (d *definition) declare(decl *declaration) hcl.Diagnostics {
	if diags := checkName(decl.name, decl.rng); diags.HasErrors() {
		return diags
	}
	if _, reserved := reservedNames[decl.name]; reserved {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Reserved name",
			Detail:   fmt.Sprintf("%q is reserved and cannot name an entry.", decl.name),
			Subject:  decl.rng.Ptr(),
		}}
	}
	if prev, dup := d.decls[decl.name]; dup {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Duplicate entry",
			Detail:   fmt.Sprintf("An entry named %q was already declared at %s.", decl.name, prev.rng),
			Subject:  decl.rng.Ptr(),
		}}
	}

	if decl.item != nil {
		d.decls[decl.name] = decl
		d.order = append(d.order, decl.name)
		d.addEntry(nodeid.New(decl.name), decl.item.Value.Expr)
		return nil
	}

	var diags hcl.Diagnostics
	seen := make(map[string]hcl.Range)
	for _, it := range decl.section.Items {
		if nameDiags := checkName(it.Name, it.DeclRange); nameDiags.HasErrors() {
			diags = append(diags, nameDiags...)
			continue
		}
		if it.Name == nodeid.OutputMember {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Reserved name",
				Detail:   fmt.Sprintf("%q names the section output; set it with the output attribute.", nodeid.OutputMember),
				Subject:  it.DeclRange.Ptr(),
			})
			continue
		}
		if prev, dup := seen[it.Name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate item",
				Detail:   fmt.Sprintf("Section %q already has an item named %q, declared at %s.", decl.name, it.Name, prev),
				Subject:  it.DeclRange.Ptr(),
			})
			continue
		}
		seen[it.Name] = it.DeclRange
	}
	if diags.HasErrors() {
		return diags
	}

	d.decls[decl.name] = decl
	d.order = append(d.order, decl.name)
	for _, it := range decl.section.Items {
		d.addEntry(nodeid.New(decl.name, it.Name), it.Value.Expr)
	}
	if decl.section.Output != nil {
		d.addEntry(nodeid.New(decl.name, nodeid.OutputMember), decl.section.Output.Expr)
	}
	return nil
}

func checkName(name string, rng hcl.Range) hcl.Diagnostics {
	if err := nodeid.ValidateName(name); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid name",
			Detail:   fmt.Sprintf("%s.", err),
			Subject:  rng.Ptr(),
		}}
	}
	return nil
}

func (d *definition) addEntry(addr *nodeid.Address, expr hcl.Expression) {
	id := addr.String()
	d.entries[id] = &entry{id: id, addr: addr, expr: expr, refs: make(map[string]*nodeid.Address)}
	d.entryOrder = append(d.entryOrder, id)
	d.graph.AddNode(id)
}

// analyze resolves every reference and previous() target, records the
// reference graph and decides which entries are recursive.
func (d *definition) analyze() hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, id := range d.entryOrder {
		e := d.entries[id]
		c := hclexpr.NewContainer(e.expr)

		for _, traversal := range c.References() {
			diags = append(diags, d.analyzeReference(e, traversal)...)
		}

		for _, name := range c.CalledFunctions() {
			if !isKnownFunction(name) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Call to unknown function",
					Detail:   fmt.Sprintf("%s calls %q; available functions are %s.", id, name, strings.Join(knownFunctions(), ", ")),
					Subject:  e.expr.Range().Ptr(),
				})
			}
		}

		calls, callDiags := c.PreviousCalls()
		diags = append(diags, callDiags...)
		for _, call := range calls {
			addr, err := nodeid.Parse(call.Target)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid previous() target",
					Detail:   fmt.Sprintf("%s.", err),
					Subject:  call.Range.Ptr(),
				})
				continue
			}
			if _, resolveDiags := d.resolve(addr, call.Range); resolveDiags.HasErrors() {
				diags = append(diags, resolveDiags...)
			}
		}

		e.recursive = c.Calls(selfFunction)
	}
	return diags
}

func (d *definition) analyzeReference(e *entry, traversal hcl.Traversal) hcl.Diagnostics {
	rng := traversal.SourceRange()
	if traversal.RootName() == stepVariable {
		if isStepVariable(traversal) {
			return nil
		}
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   fmt.Sprintf("%q is the current step and has no attributes.", stepVariable),
			Subject:  rng.Ptr(),
		}}
	}

	addr, diags := hclexpr.AddressOf(traversal)
	if diags.HasErrors() {
		return diags
	}
	target, diags := d.resolve(addr, rng)
	if diags.HasErrors() {
		return diags
	}
	if target.id == e.id {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Self reference",
			Detail:   fmt.Sprintf("%s refers to itself; use %s(k) to read its value at another step.", e.id, selfFunction),
			Subject:  rng.Ptr(),
		}}
	}

	e.refs[hclexpr.TraversalKey(traversal)] = target.addr
	if err := d.graph.AddEdge(target.id, e.id); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid reference",
			Detail:   err.Error(),
			Subject:  rng.Ptr(),
		}}
	}
	return nil
}

// resolve finds the entry addr names.
func (d *definition) resolve(addr *nodeid.Address, rng hcl.Range) (*entry, hcl.Diagnostics) {
	fail := func(summary, detail string) (*entry, hcl.Diagnostics) {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  summary,
			Detail:   detail,
			Subject:  rng.Ptr(),
		}}
	}

	decl, ok := d.decls[addr.Entry()]
	switch {
	case !ok:
		return fail("Unknown reference", fmt.Sprintf("There is no entry named %q.", addr.Entry()))
	case decl.section != nil && addr.Member() == "":
		return fail("Invalid reference", fmt.Sprintf("%q is a section; reference one of its items or %s.%s.", addr.Entry(), addr.Entry(), nodeid.OutputMember))
	case decl.item != nil && addr.Member() != "":
		return fail("Invalid reference", fmt.Sprintf("%q is an item and has no members.", addr.Entry()))
	}

	e, ok := d.entries[addr.String()]
	if !ok {
		return fail("Unknown reference", fmt.Sprintf("Section %q has no member %q.", addr.Entry(), addr.Member()))
	}
	return e, nil
}

// assemble registers the built nodes in declaration order.
func (d *definition) assemble(nodes map[string]*node.Node) *model.Model {
	name := DefaultModelName
	if d.model != nil {
		name = d.model.Name
	}

	m := model.New(name)
	for _, entryName := range d.order {
		decl := d.decls[entryName]
		if decl.item != nil {
			m.Set(entryName, nodes[entryName])
			continue
		}
		s := m.NewSection(entryName)
		for _, it := range decl.section.Items {
			s.Set(it.Name, nodes[nodeid.New(entryName, it.Name).String()])
		}
		if decl.section.Output != nil {
			s.SetOutput(nodes[nodeid.New(entryName, nodeid.OutputMember).String()])
		}
	}
	return m
}

func isStepVariable(traversal hcl.Traversal) bool {
	return len(traversal) == 1 && traversal.RootName() == stepVariable
}
