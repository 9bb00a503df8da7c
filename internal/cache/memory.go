package cache

import (
	"sync"

	"pointeval/internal/models"
)

// MemoryStore is an in-memory Store. It decouples the matching and metrics
// pipeline from persistent storage in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]models.DetectionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]models.DetectionRecord)}
}

func (s *MemoryStore) GetOrCompute(key Key, compute func() ([]models.DetectionRecord, error)) ([]models.DetectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := key.String()
	if records, ok := s.entries[id]; ok {
		return records, nil
	}

	records, err := compute()
	if err != nil {
		return nil, err
	}
	s.entries[id] = records
	return records, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
