// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for the
addresses of model entries.

The format is a dot-separated path of at most two segments: a top-level entry
(`cumulative`), or a member of a section (`revenue.r1`, `revenue.output`).

Each address also has a column key, the name under which its values appear in
a result table: segments joined with an underscore (`revenue_r1`). A section's
output is keyed by the section name alone.
*/
package nodeid
