// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Section structure: a named group of line items with
// a single designated output.
package model

import (
	"fmt"
	"slices"

	"github.com/vk/cashgrid/internal/node"
	"github.com/zclconf/go-cty/cty"
)

// Section is a named mapping of item names to nodes plus an output node.
type Section struct {
	name   string
	order  []string
	items  map[string]*node.Node
	output *node.Node
}

// NewSection creates an empty section.
func NewSection(name string) *Section {
	return &Section{
		name:  name,
		items: make(map[string]*node.Node),
	}
}

// Name returns the section's name.
func (s *Section) Name() string {
	return s.name
}

// Set registers n under name. Replacing an existing item keeps its position.
func (s *Section) Set(name string, n *node.Node) {
	if _, exists := s.items[name]; !exists {
		s.order = append(s.order, name)
	}
	s.items[name] = n
}

// Item returns the node registered under name.
func (s *Section) Item(name string) (*node.Node, bool) {
	n, ok := s.items[name]
	return n, ok
}

// Items returns the item names in insertion order.
func (s *Section) Items() []string {
	return slices.Clone(s.order)
}

// Line builds a plain node from fn, registers it under name and returns it.
func (s *Section) Line(name string, fn node.Func) (*node.Node, error) {
	n, err := node.New(fn)
	if err != nil {
		return nil, fmt.Errorf("section %q, line %q: %w", s.name, name, err)
	}
	s.Set(name, n)
	return n, nil
}

// SetOutput designates the section's output. The node does not have to be
// one of the section's items.
func (s *Section) SetOutput(n *node.Node) {
	s.output = n
}

// Output returns the designated output node, or ErrNoOutput.
func (s *Section) Output() (*node.Node, error) {
	if s.output == nil {
		return nil, fmt.Errorf("section %q: %w", s.name, ErrNoOutput)
	}
	return s.output, nil
}

// Evaluate computes the section's output at step t.
func (s *Section) Evaluate(t int) (cty.Value, error) {
	out, err := s.Output()
	if err != nil {
		return cty.NilVal, err
	}
	return out.Evaluate(t)
}
