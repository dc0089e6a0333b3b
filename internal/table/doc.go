// Package table holds the result of a model run: one row per time step, one
// column per model entry, cells as cty values. It also renders tables as
// aligned text, CSV, JSON or YAML.
package table
