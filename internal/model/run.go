// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file implements the tabulation engine. Run drives evaluation step by
// step and assembles the results into a table.Table.
//
// Rows are filled in increasing step order. With memoization on, a recurrence
// then finds step t-1 already cached.
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/cashgrid/internal/ctxlog"
	"github.com/vk/cashgrid/internal/node"
	"github.com/vk/cashgrid/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// RunOptions configures a single Run.
type RunOptions struct {
	// MaxDepth is the evaluation depth budget per cell.
	MaxDepth int
	// Memoize caches each column's values for the duration of the run.
	Memoize bool
	// IndexName names the step index of the resulting table.
	IndexName string
}

// RunOption is a functional option for Run.
type RunOption func(*RunOptions)

// WithMaxDepth sets the evaluation depth budget per cell.
func WithMaxDepth(depth int) RunOption {
	return func(opts *RunOptions) {
		opts.MaxDepth = depth
	}
}

// WithMemoization caches column values per step for the duration of the run.
func WithMemoization() RunOption {
	return func(opts *RunOptions) {
		opts.Memoize = true
	}
}

// WithIndexName renames the step index column.
func WithIndexName(name string) RunOption {
	return func(opts *RunOptions) {
		opts.IndexName = name
	}
}

// Run evaluates every column for each step in [0, steps) and returns the
// resulting table. Any failing cell aborts the whole run.
func (m *Model) Run(ctx context.Context, steps int, opts ...RunOption) (*table.Table, error) {
	ctx, logger := ctxlog.With(ctx, "model", m.name)

	options := RunOptions{
		MaxDepth:  node.DefaultMaxDepth,
		IndexName: table.DefaultIndexName,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if steps < 0 {
		return nil, fmt.Errorf("model %q: steps must not be negative, got %d", m.name, steps)
	}

	cols, err := m.columns(true)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", m.name, err)
	}
	for _, c := range cols {
		if c.node == nil {
			return nil, fmt.Errorf("model %q: %s has no node", m.name, c.origin)
		}
	}

	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.key
		if options.Memoize {
			cols[i].node = node.Memoize(c.node)
		}
	}
	logger.Debug("Model run started.", "steps", steps, "columns", len(cols), "memoize", options.Memoize)

	start := time.Now()
	result := table.New(options.IndexName, keys)
	for t := 0; t < steps; t++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("model %q: run interrupted at step %d: %w", m.name, t, err)
		}

		row := make(map[string]cty.Value, len(cols))
		for _, c := range cols {
			v, err := c.node.EvaluateWithLimit(t, options.MaxDepth)
			if err != nil {
				logger.Debug("Cell evaluation failed.", "step", t, "column", c.key, "error", err)
				return nil, &CellError{Step: t, Column: c.key, Err: err}
			}
			row[c.key] = v
		}
		if err := result.Append(row); err != nil {
			return nil, fmt.Errorf("model %q: step %d: %w", m.name, t, err)
		}
		logger.Debug("Row evaluated.", "step", t)
	}

	logger.Debug("Model run finished.", "rows", result.Len(), "elapsed", time.Since(start))
	return result, nil
}
