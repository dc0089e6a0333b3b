// Package hcl loads cashgrid models written in HCL.
//
// A model file declares an optional `model` block with the run length, any
// number of `section` blocks holding `item` blocks and an `output`, and
// top-level `item` blocks. Every item and output expression becomes one
// leaf node that evaluates the expression at the requested step, reaching
// the entries it references through the evaluation's scope.
//
// Loading parses and decodes every file, checks names and references,
// rejects reference cycles, and assembles a model.Model in declaration
// order.
package hcl
