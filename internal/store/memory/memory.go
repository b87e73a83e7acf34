// Package memory is an in-process VectorStore using brute-force cosine
// similarity. It backs the test suite and no-database runs.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/persona-ai/cli/internal/store"
)

// Ensure Store implements the interface.
var _ store.VectorStore = (*Store)(nil)

// collection holds one persona's chunks. Each collection carries its own
// lock so a rebuild of one persona never blocks reads of another.
type collection struct {
	mu        sync.RWMutex
	dimension int
	chunks    []store.Chunk
}

// Store maps persona names to their chunk collections.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// lookup returns the persona's collection, creating it when create is set.
func (s *Store) lookup(persona string, create bool) *collection {
	s.mu.RLock()
	c := s.collections[persona]
	s.mu.RUnlock()
	if c != nil || !create {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c = s.collections[persona]; c == nil {
		c = &collection{}
		s.collections[persona] = c
	}
	return c
}

// GetOrCreate ensures a collection exists for the persona.
func (s *Store) GetOrCreate(_ context.Context, persona string) error {
	s.lookup(persona, true)
	return nil
}

// Rebuild resets the persona's collection to empty.
func (s *Store) Rebuild(_ context.Context, persona string) error {
	c := s.lookup(persona, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dimension = 0
	c.chunks = nil
	return nil
}

// UpsertBatch appends all chunks to the persona's collection. An empty
// batch is a no-op.
func (s *Store) UpsertBatch(_ context.Context, persona string, chunks []store.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	c := s.lookup(persona, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insert(chunks)
}

// Replace swaps the persona's collection contents for the given chunks.
// The new contents are validated before the write lock is taken, so a
// failed replace leaves the old generation intact.
func (s *Store) Replace(_ context.Context, persona string, chunks []store.Chunk) error {
	fresh := collection{}
	if err := fresh.insert(chunks); err != nil {
		return err
	}

	c := s.lookup(persona, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dimension = fresh.dimension
	c.chunks = fresh.chunks
	return nil
}

// Search returns the k most similar chunks by cosine similarity. Equal
// scores keep insertion order. A query whose dimensionality differs from
// the collection's fails with ErrDimensionMismatch.
func (s *Store) Search(_ context.Context, persona string, query []float32, k int) ([]store.SearchResult, error) {
	c := s.lookup(persona, false)
	if c == nil || k <= 0 {
		return nil, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.chunks) > 0 && len(query) != c.dimension {
		return nil, fmt.Errorf("query has %d dimensions, collection has %d: %w",
			len(query), c.dimension, store.ErrDimensionMismatch)
	}

	results := make([]store.SearchResult, 0, len(c.chunks))
	for _, ch := range c.chunks {
		results = append(results, store.SearchResult{
			Text:  ch.Text,
			Score: cosineSimilarity(query, ch.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// insert validates dimensionality and appends. Must hold the collection's
// write lock unless the collection is not yet shared.
func (c *collection) insert(chunks []store.Chunk) error {
	dim := c.dimension
	for _, ch := range chunks {
		if dim == 0 {
			dim = len(ch.Embedding)
		}
		if len(ch.Embedding) == 0 || len(ch.Embedding) != dim {
			return fmt.Errorf("chunk %s has %d dimensions, collection has %d: %w",
				ch.ID, len(ch.Embedding), dim, store.ErrDimensionMismatch)
		}
	}
	c.dimension = dim
	c.chunks = append(c.chunks, chunks...)
	return nil
}

// cosineSimilarity computes dot(a,b) / (|a|*|b|) over equal-length
// vectors; zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
