// Package dag is a small directed-graph toolkit for the reference graph between
// model entries. Nodes are string IDs; an edge from A to B records that B
// refers to A. The graph reports cycles with the path that closes them and
// yields a deterministic dependency-first order.
package dag
