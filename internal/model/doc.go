// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model groups expression nodes into named Sections and Models and
// tabulates them over a range of time steps.
//
// # Core Concepts
//
// The package is built around a few key structures:
//
//   - Section: a named set of line items plus one designated output node. The
//     output may be any node: one of the items, a composite of them, or a node
//     that is not registered in the section at all.
//
//   - Model: the top-level, ordered collection of entries. An entry is either
//     a Section or a bare node (the "items-only" style of model).
//
//   - Run: the tabulation engine. It walks the steps 0..n-1 in order and, for
//     each step, evaluates every column and appends one row to a table.Table.
//
// # Column keys
//
// A Section named `revenue` with items `r1` and `r2` contributes the columns
// `revenue` (its output), `revenue_r1` and `revenue_r2`. A bare node entry
// contributes a single column under its own name. Column keys must be unique
// across the whole model.
//
// # Evaluation
//
// Nothing is evaluated until Run. Nodes are not cached between cells, so a
// self-referencing item re-derives its whole history for every row; the
// WithMemoization option opts into per-column caching for the duration of a
// single run.
package model
