// Package store defines the persona-scoped vector collection contract
// shared by the Postgres and in-memory backends.
package store

import (
	"context"
	"errors"
)

// Chunk is a persona source excerpt with its embedding vector. IDs follow
// the form "<persona>_<index>", where index is the chunk's position in the
// deterministic chunk sequence of the source file.
type Chunk struct {
	ID         string
	Persona    string
	Index      int
	Text       string
	SourcePath string
	Embedding  []float32
}

// SearchResult pairs a stored chunk's text with its similarity to a query
// vector. Higher scores are more similar.
type SearchResult struct {
	Text  string
	Score float64
}

// ErrDimensionMismatch reports a chunk whose vector length differs from the
// dimensionality already established for the collection.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// VectorStore holds one named chunk collection per persona.
//
// Replace is the rebuild-and-fill operation used by ingestion: a Search
// running concurrently with Replace observes either the full previous
// generation or the full new one, never a partial mix and never the gap
// between delete and insert. Rebuild and UpsertBatch remain available as
// standalone administrative operations without that guarantee.
type VectorStore interface {
	// GetOrCreate ensures an (possibly empty) collection exists for the
	// persona. Idempotent.
	GetOrCreate(ctx context.Context, persona string) error

	// Rebuild discards the persona's collection, if any, and creates a
	// fresh empty one under the same name.
	Rebuild(ctx context.Context, persona string) error

	// UpsertBatch inserts all chunks into the persona's collection as one
	// logical operation. An empty batch is a no-op; mixed vector
	// dimensionality fails with ErrDimensionMismatch.
	UpsertBatch(ctx context.Context, persona string, chunks []Chunk) error

	// Replace atomically swaps the persona's collection contents for the
	// given chunks.
	Replace(ctx context.Context, persona string, chunks []Chunk) error

	// Search returns the k stored chunks most similar to the query vector
	// by cosine similarity, descending, ties broken by insertion order. A
	// missing or empty collection yields an empty result, not an error.
	Search(ctx context.Context, persona string, query []float32, k int) ([]SearchResult, error)
}
