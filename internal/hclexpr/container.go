package hclexpr

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
)

// Container is a thread-safe helper that gathers HCL expressions and provides
// analysis results, such as variable references and function calls.
type Container struct {
	mu          sync.RWMutex
	expressions []hcl.Expression
	analyzed    bool

	// Caching fields for analysis results
	references      []hcl.Traversal
	calledFunctions []string
	previousCalls   []PreviousCall
	previousDiags   hcl.Diagnostics
}

// NewContainer creates a new container holding the given expressions.
func NewContainer(exprs ...hcl.Expression) *Container {
	c := &Container{}
	c.Add(exprs...)
	return c
}

// Add adds one or more expressions to the container for analysis.
// It safely ignores any nil expressions.
func (c *Container) Add(exprs ...hcl.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, expr := range exprs {
		if expr != nil {
			c.expressions = append(c.expressions, expr)
			c.analyzed = false
		}
	}
}

// analyze runs the extraction if the expression set changed since the last run.
func (c *Container) analyze() {
	c.mu.RLock()
	done := c.analyzed
	c.mu.RUnlock()
	if done {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analyzed {
		return
	}
	c.references, c.calledFunctions = extractReferencesAndFunctions(c.expressions...)
	c.previousCalls, c.previousDiags = extractPreviousCalls(c.expressions...)
	c.analyzed = true
}

// References returns all unique variable traversals found in the expressions.
func (c *Container) References() []hcl.Traversal {
	c.analyze()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.references
}

// CalledFunctions returns all unique function calls found in the expressions.
func (c *Container) CalledFunctions() []string {
	c.analyze()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calledFunctions
}

// Calls reports whether any expression calls the named function.
func (c *Container) Calls(name string) bool {
	for _, f := range c.CalledFunctions() {
		if f == name {
			return true
		}
	}
	return false
}

// PreviousCalls returns the literal targets of every previous() call, along
// with diagnostics for calls whose target is not a literal string.
func (c *Container) PreviousCalls() ([]PreviousCall, hcl.Diagnostics) {
	c.analyze()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.previousCalls, c.previousDiags
}
