// Package openinterest derives open-interest buildup signals from consecutive
// ticks of the same instrument.
package openinterest

import "sync"

// Reading is the last open interest and price seen for an instrument
type Reading struct {
	OpenInterest float64 `json:"open_interest"`
	Price        float64 `json:"price"`
}

// Store caches the most recent reading per instrument.
//
// Each instrument key is written only by the goroutine processing that
// instrument's ticks; different instruments may be written concurrently.
type Store interface {
	Get(instrument string) (Reading, bool)
	Set(instrument string, r Reading)
	Clear()
}

// MemoryStore is a Store backed by sync.Map
type MemoryStore struct {
	m sync.Map
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the cached reading of an instrument
func (s *MemoryStore) Get(instrument string) (Reading, bool) {
	v, ok := s.m.Load(instrument)
	if !ok {
		return Reading{}, false
	}
	return v.(Reading), true
}

// Set replaces the cached reading of an instrument
func (s *MemoryStore) Set(instrument string, r Reading) {
	s.m.Store(instrument, r)
}

// Clear drops every cached reading
func (s *MemoryStore) Clear() {
	s.m.Range(func(key, _ any) bool {
		s.m.Delete(key)
		return true
	})
}
