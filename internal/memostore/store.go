package memostore

import (
	"sync"
	"sync/atomic"

	"github.com/zclconf/go-cty/cty"
)

// Store caches evaluated values by time step.
type Store interface {
	// Load returns the cached value for step t and whether one was present.
	Load(t int) (cty.Value, bool)
	// Save records the value computed for step t. Saving a step twice keeps
	// the first value.
	Save(t int, v cty.Value)
	// Len reports the number of cached steps.
	Len() int
}

// mapStore is a Store built on sync.Map.
type mapStore struct {
	values sync.Map // Key: int step, Value: cty.Value
	count  atomic.Int64
}

// New creates a new, empty in-memory store.
func New() Store {
	return &mapStore{}
}

func (s *mapStore) Load(t int) (cty.Value, bool) {
	v, ok := s.values.Load(t)
	if !ok {
		return cty.NilVal, false
	}
	return v.(cty.Value), true
}

func (s *mapStore) Save(t int, v cty.Value) {
	if _, loaded := s.values.LoadOrStore(t, v); !loaded {
		s.count.Add(1)
	}
}

func (s *mapStore) Len() int {
	return int(s.count.Load())
}
