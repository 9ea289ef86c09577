package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

var bucketEntries = []byte("entries")

// BoltStore persists entries in a BoltDB file and searches them brute force.
// The corpus is a single document, so an in-memory copy is kept for queries.
type BoltStore struct {
	db *bbolt.DB
	mu sync.RWMutex
	// In-memory cache for fast search, keyed by id
	entries map[string]models.IndexEntry
	order   []string
}

var _ VectorStore = (*BoltStore)(nil)

type storedEntry struct {
	Vector   []float32         `json:"v"`
	Document string            `json:"d"`
	Metadata map[string]string `json:"m,omitempty"`
	Seq      uint64            `json:"s"`
}

// OpenBoltStore opens (or creates) the index file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create entries bucket: %w", err)
	}

	s := &BoltStore{
		db:      db,
		entries: make(map[string]models.IndexEntry),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return s, nil
}

// load reads every entry into memory, restoring insertion order.
func (s *BoltStore) load() error {
	type loaded struct {
		id  string
		seq uint64
	}
	var ids []loaded

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEntries).ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			id := string(k)
			s.entries[id] = models.IndexEntry{
				ID:        id,
				Embedding: stored.Vector,
				Metadata:  stored.Metadata,
				Document:  stored.Document,
			}
			ids = append(ids, loaded{id: id, seq: stored.Seq})
			return nil
		})
	})
	if err != nil {
		return err
	}

	// bolt iterates in key order; sequence numbers restore write order
	sort.Slice(ids, func(i, j int) bool { return ids[i].seq < ids[j].seq })
	for _, l := range ids {
		s.order = append(s.order, l.id)
	}
	return nil
}

func (s *BoltStore) Add(_ context.Context, entries []models.IndexEntry) error {
	if err := validateEntries(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, e := range entries {
			if b.Get([]byte(e.ID)) != nil {
				return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
			}

			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(storedEntry{
				Vector:   e.Embedding,
				Document: e.Document,
				Metadata: e.Metadata,
				Seq:      seq,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Update in-memory cache only once the transaction committed
	for _, e := range entries {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return nil
}

func (s *BoltStore) Query(_ context.Context, embedding []float32, k int, filter *Filter) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankEntries(s.snapshot(), embedding, k, filter)
}

func (s *BoltStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *BoltStore) DeleteWhere(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []string
	for _, id := range s.order {
		if s.entries[id].Metadata[key] == value {
			doomed = append(doomed, id)
		}
	}
	if len(doomed) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, id := range doomed {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range doomed {
		delete(s.entries, id)
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.entries[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

func (s *BoltStore) MetadataValues(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinctValues(s.snapshot(), key), nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) snapshot() []models.IndexEntry {
	out := make([]models.IndexEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}
