// Package testutil runs the application end to end against model files
// written into a temporary directory.
package testutil
