// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Model structure, the root container for sections and
// bare line items, and the derivation of its column set.
package model

import (
	"fmt"

	"github.com/vk/cashgrid/internal/node"
)

// Entry is one top-level member of a Model: exactly one of Section and Node
// is set.
type Entry struct {
	Name    string
	Section *Section
	Node    *node.Node
}

// Model is an ordered, named collection of sections and nodes. Sections and
// nodes share one namespace.
type Model struct {
	name    string
	order   []string
	entries map[string]Entry
}

// New creates an empty model.
func New(name string) *Model {
	return &Model{
		name:    name,
		entries: make(map[string]Entry),
	}
}

// Name returns the model's name.
func (m *Model) Name() string {
	return m.name
}

func (m *Model) put(e Entry) {
	if _, exists := m.entries[e.Name]; !exists {
		m.order = append(m.order, e.Name)
	}
	m.entries[e.Name] = e
}

// AddSection registers s under its own name, replacing any entry with that
// name in place.
func (m *Model) AddSection(s *Section) {
	m.put(Entry{Name: s.Name(), Section: s})
}

// NewSection creates a section, registers it and returns it.
func (m *Model) NewSection(name string) *Section {
	s := NewSection(name)
	m.AddSection(s)
	return s
}

// Section returns the section registered under name.
func (m *Model) Section(name string) (*Section, bool) {
	e, ok := m.entries[name]
	if !ok || e.Section == nil {
		return nil, false
	}
	return e.Section, true
}

// Set registers a bare node under name.
func (m *Model) Set(name string, n *node.Node) {
	m.put(Entry{Name: name, Node: n})
}

// Item returns the bare node registered under name.
func (m *Model) Item(name string) (*node.Node, bool) {
	e, ok := m.entries[name]
	if !ok || e.Node == nil {
		return nil, false
	}
	return e.Node, true
}

// Entries returns every entry in insertion order.
func (m *Model) Entries() []Entry {
	entries := make([]Entry, 0, len(m.order))
	for _, name := range m.order {
		entries = append(entries, m.entries[name])
	}
	return entries
}

// column is one resolved table column and the node that fills it.
type column struct {
	key    string
	origin string
	node   *node.Node
}

// Columns returns the column keys Run produces, in order.
func (m *Model) Columns() ([]string, error) {
	cols, err := m.columns(false)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.key
	}
	return keys, nil
}

// Validate reports whether Run can tabulate the model: every section has an
// output and no two columns share a key.
func (m *Model) Validate() error {
	_, err := m.columns(true)
	return err
}

// columns resolves every entry into its columns. With requireOutput set a
// section without an output is an error.
func (m *Model) columns(requireOutput bool) ([]column, error) {
	var cols []column
	seen := make(map[string]string)

	add := func(c column) error {
		if first, dup := seen[c.key]; dup {
			return &DuplicateColumnError{Column: c.key, First: first, Second: c.origin}
		}
		seen[c.key] = c.origin
		cols = append(cols, c)
		return nil
	}

	for _, e := range m.Entries() {
		if e.Section == nil {
			if err := add(column{key: e.Name, origin: fmt.Sprintf("item %q", e.Name), node: e.Node}); err != nil {
				return nil, err
			}
			continue
		}

		out := e.Section.output
		if out == nil && requireOutput {
			if _, err := e.Section.Output(); err != nil {
				return nil, err
			}
		}
		if err := add(column{key: e.Name, origin: fmt.Sprintf("section %q", e.Name), node: out}); err != nil {
			return nil, err
		}
		for _, item := range e.Section.order {
			c := column{
				key:    e.Name + "_" + item,
				origin: fmt.Sprintf("section %q item %q", e.Name, item),
				node:   e.Section.items[item],
			}
			if err := add(c); err != nil {
				return nil, err
			}
		}
	}
	return cols, nil
}
