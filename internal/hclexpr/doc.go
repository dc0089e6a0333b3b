// Package hclexpr provides static analysis of HCL expressions: the variables
// they reference, the functions they call and the literal targets of
// previous() calls. The model loader uses it to validate references and to
// build the reference graph before anything is evaluated.
package hclexpr
