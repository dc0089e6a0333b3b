// Package memostore provides the per-step value cache behind memoized
// expression nodes.
//
// A store lives exactly as long as the memo node that owns it. Entries are
// never evicted and never invalidated: node functions are pure, so a value
// computed for a step stays correct for the lifetime of the node.
//
// The implementation is backed by sync.Map, which suits the access pattern
// of a cache that is written once per key and read many times, possibly
// from independent callers evaluating the same node.
package memostore
