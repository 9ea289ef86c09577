// Package store holds the vector store backends for passage embeddings.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

var (
	// ErrDuplicateID is returned by Add when an entry id is already present.
	ErrDuplicateID = errors.New("duplicate entry id")
	// ErrDimensionMismatch is returned when vectors of different sizes are mixed.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Filter restricts a query to entries whose metadata Key equals Value.
type Filter struct {
	Key   string
	Value string
}

// Match is a single query hit. Results are ordered nearest first.
type Match struct {
	ID       string
	Document string
	Metadata map[string]string
	Score    float64
}

// VectorStore is the logical read/write contract of the passage index.
type VectorStore interface {
	// Add inserts entries. It fails with ErrDuplicateID when an id is taken.
	Add(ctx context.Context, entries []models.IndexEntry) error

	// Query returns the k entries nearest to embedding, optionally filtered.
	// An empty store or a filter without hits yields an empty slice.
	Query(ctx context.Context, embedding []float32, k int, filter *Filter) ([]Match, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// DeleteWhere removes all entries whose metadata key equals value.
	DeleteWhere(ctx context.Context, key, value string) error

	// MetadataValues returns the distinct values stored under key.
	MetadataValues(ctx context.Context, key string) ([]string, error)

	Close() error
}

func validateEntries(entries []models.IndexEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry with empty id")
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

func matchesFilter(metadata map[string]string, filter *Filter) bool {
	if filter == nil {
		return true
	}
	v, ok := metadata[filter.Key]
	return ok && v == filter.Value
}

// rankEntries scores entries against query with cosine similarity and keeps the top k.
func rankEntries(entries []models.IndexEntry, query []float32, k int, filter *Filter) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	scored := make([]Match, 0, len(entries))
	for _, e := range entries {
		if !matchesFilter(e.Metadata, filter) {
			continue
		}
		if len(e.Embedding) != len(query) {
			return nil, fmt.Errorf("%w: query has %d, entry %s has %d", ErrDimensionMismatch, len(query), e.ID, len(e.Embedding))
		}
		scored = append(scored, Match{
			ID:       e.ID,
			Document: e.Document,
			Metadata: e.Metadata,
			Score:    cosineSimilarity(query, e.Embedding),
		})
	}

	// ties are broken by id so results are stable across map iteration order
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

func distinctValues(entries []models.IndexEntry, key string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, e := range entries {
		v, ok := e.Metadata[key]
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
