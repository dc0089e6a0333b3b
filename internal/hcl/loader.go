package hcl

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/cashgrid/internal/ctxlog"
	"github.com/vk/cashgrid/internal/dag"
	"github.com/vk/cashgrid/internal/model"
	"github.com/vk/cashgrid/internal/node"
)

// DefaultModelName names a model whose files declare no model block.
const DefaultModelName = "model"

// Result is a loaded model together with the settings its files declare.
type Result struct {
	Model *model.Model
	// Steps is the run length from the model block. HasSteps is false when
	// no file sets it.
	Steps    int
	HasSteps bool
	// Files lists the files read, in load order.
	Files []string
}

// Loader reads HCL model files.
type Loader struct {
	memoize bool
}

// LoaderOption is a functional option for NewLoader.
type LoaderOption func(*Loader)

// WithMemoization makes every loaded entry cache its values per step,
// including the lookups other entries make through references.
func WithMemoization() LoaderOption {
	return func(l *Loader) {
		l.memoize = true
	}
}

// NewLoader creates a new HCL model loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every .hcl file under paths, merges their blocks and builds
// the model. Files are merged in the order they are found; a name declared
// twice anywhere is an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	def := newDefinition()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if !diags.HasErrors() {
			diags = root.validate()
		}
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		if diags := def.merge(&root); diags.HasErrors() {
			return nil, fmt.Errorf("invalid model in %s: %w", file, diags)
		}
	}

	if diags := def.analyze(); diags.HasErrors() {
		return nil, fmt.Errorf("invalid model: %w", diags)
	}

	order, err := def.graph.TopologicalOrder()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, fmt.Errorf("invalid model: entries reference each other in a loop; use self() or previous() for recurrences: %w", err)
		}
		return nil, err
	}

	nodes, err := l.build(ctx, def, order)
	if err != nil {
		return nil, err
	}
	m := def.assemble(nodes)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	res := &Result{Model: m, Files: files}
	if def.model != nil && def.model.Steps != nil {
		res.Steps = *def.model.Steps
		res.HasSteps = true
	}

	logger.Debug("HCL loading complete.", "model", m.Name(), "entries", len(def.order), "expressions", len(order), "memoize", l.memoize)
	return res, nil
}

// build creates one node per expression, dependencies first.
func (l *Loader) build(ctx context.Context, def *definition, order []string) (map[string]*node.Node, error) {
	logger := ctxlog.FromContext(ctx)
	nodes := make(map[string]*node.Node, len(order))
	for _, id := range order {
		e := def.entries[id]
		n, err := node.NewScoped(leafFunc(e, nodes), e.recursive)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		if l.memoize {
			n = node.Memoize(n)
		}
		nodes[id] = n

		deps, err := def.graph.Dependencies(id)
		if err != nil {
			return nil, err
		}
		logger.Debug("Expression node built.", "id", id, "depends_on", deps, "recursive", e.recursive)
	}
	return nodes, nil
}
