// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the errors reported while building and running a model.
package model

import (
	"errors"
	"fmt"
)

// ErrNoOutput is returned when a Section is evaluated before its output has
// been set.
var ErrNoOutput = errors.New("no output defined")

// DuplicateColumnError reports two model entries that map to the same column.
type DuplicateColumnError struct {
	Column string
	First  string
	Second string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("column %q is produced by both %s and %s", e.Column, e.First, e.Second)
}

// CellError wraps the failure of a single cell during Run.
type CellError struct {
	Step   int
	Column string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("step %d, column %q: %v", e.Step, e.Column, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}
