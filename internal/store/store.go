package store

import (
	"fmt"
	"sync"

	"pointeval/internal/models"
)

// Store accumulates per-image results in processing order. Strictly
// append-only within a run; the finalized sequence preserves input order.
type Store struct {
	mu        sync.Mutex
	results   []models.ImageResult
	finalized bool
}

func New() *Store {
	return &Store{}
}

// Append records one image result.
func (s *Store) Append(r models.ImageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return fmt.Errorf("result store already finalized")
	}
	s.results = append(s.results, r)
	return nil
}

// Finalize closes the store and returns the ordered result sequence for the
// reporting tool.
func (s *Store) Finalize() []models.ImageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = true
	return s.snapshot()
}

// Snapshot returns a copy of the results accumulated so far without closing
// the store.
func (s *Store) Snapshot() []models.ImageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of accumulated results.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *Store) snapshot() []models.ImageResult {
	out := make([]models.ImageResult, len(s.results))
	copy(out, s.results)
	return out
}
