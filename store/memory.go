package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

// MemoryStore keeps entries in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.IndexEntry
	order   []string
}

var _ VectorStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]models.IndexEntry),
	}
}

func (s *MemoryStore) Add(_ context.Context, entries []models.IndexEntry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if _, ok := s.entries[e.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
	}
	for _, e := range entries {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, embedding []float32, k int, filter *Filter) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankEntries(s.snapshot(), embedding, k, filter)
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) DeleteWhere(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		if s.entries[id].Metadata[key] == value {
			delete(s.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

func (s *MemoryStore) MetadataValues(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinctValues(s.snapshot(), key), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// snapshot returns entries in insertion order. Callers hold the lock.
func (s *MemoryStore) snapshot() []models.IndexEntry {
	out := make([]models.IndexEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}
