// Package runstore provides an ephemeral, thread-safe in-memory record of
// recent runs, backing the status API. It keeps a bounded window: once the
// capacity is reached the oldest run is dropped. For anything persistent a
// different implementation would be needed; the engine itself only ever
// depends on this narrow surface.
package runstore

import (
	"sync"

	"github.com/vk/forgeci/internal/report"
)

// DefaultCapacity is the number of runs kept when no explicit capacity is
// given.
const DefaultCapacity = 64

// Store is a bounded, mutex-guarded ring of run records.
type Store struct {
	mu   sync.RWMutex
	runs []*report.Run
	cap  int
}

// New creates a Store keeping at most capacity runs. A non-positive capacity
// falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{cap: capacity}
}

// Add records a run, evicting the oldest once the store is full.
func (s *Store) Add(run *report.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	if len(s.runs) > s.cap {
		s.runs = s.runs[len(s.runs)-s.cap:]
	}
}

// List returns the stored runs, most recent first.
func (s *Store) List() []*report.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*report.Run, len(s.runs))
	for i, r := range s.runs {
		out[len(s.runs)-1-i] = r
	}
	return out
}

// Get returns the run with the given ID, or nil.
func (s *Store) Get(id string) *report.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.runs {
		if r.ID == id {
			return r
		}
	}
	return nil
}
