package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"pointeval/internal/logger"
	"pointeval/internal/models"
)

// DirStore persists cache entries as JSON files in a directory. Entries
// survive across runs until externally deleted; there is no automatic
// invalidation. Writes go to a temp file first and are renamed into place, so
// an interrupted or failed compute never leaves a partially visible entry.
// Two processes racing on the same key may compute redundantly, but cannot
// corrupt each other's entries.
type DirStore struct {
	dir    string
	logger *logger.Logger

	mu   sync.Mutex
	memo map[string][]models.DetectionRecord
}

// NewDirStore creates the cache directory if needed.
func NewDirStore(dir string, log *logger.Logger) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &DirStore{
		dir:    dir,
		logger: log,
		memo:   make(map[string][]models.DetectionRecord),
	}, nil
}

// GetOrCompute returns the entry for key, invoking compute only on a miss.
// A read failure or corrupt entry is treated as a miss and overwritten, never
// surfaced as fatal.
func (s *DirStore) GetOrCompute(key Key, compute func() ([]models.DetectionRecord, error)) ([]models.DetectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := key.String()
	if records, ok := s.memo[id]; ok {
		return records, nil
	}

	path := filepath.Join(s.dir, id+".json")
	if data, err := os.ReadFile(path); err == nil {
		var records []models.DetectionRecord
		if err := json.Unmarshal(data, &records); err == nil {
			s.memo[id] = records
			return records, nil
		}
		s.logger.Warning("corrupt cache entry %s, recomputing: %v", id, err)
	}

	records, err := compute()
	if err != nil {
		return nil, err
	}

	if err := s.write(path, records); err != nil {
		return nil, fmt.Errorf("failed to persist cache entry %s: %w", id, err)
	}

	s.memo[id] = records
	return records, nil
}

func (s *DirStore) write(path string, records []models.DetectionRecord) error {
	if records == nil {
		records = []models.DetectionRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
