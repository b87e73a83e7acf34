package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/persona-ai/cli/internal/store"
)

// DefaultTopK is the number of context chunks retrieved per query.
const DefaultTopK = 3

// ErrRetrievalFailed reports a failed context lookup during a live query.
// Callers recover by answering with no retrieved context instead of
// failing the request.
var ErrRetrievalFailed = errors.New("context retrieval failed")

// Embedder converts free text into a fixed-length vector. The same
// embedder must serve ingestion and querying so vectors are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever finds stored persona chunks relevant to a query.
type Retriever struct {
	store    store.VectorStore
	embedder Embedder
	topK     int
}

// NewRetriever creates a new retriever
func NewRetriever(st store.VectorStore, embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		store:    st,
		embedder: embedder,
		topK:     topK,
	}
}

// Retrieve returns the texts of the chunks most similar to the query for
// the given persona, best match first. An unseeded persona yields an empty
// result; embedding or store failures are reported as ErrRetrievalFailed.
func (r *Retriever) Retrieve(ctx context.Context, persona, query string) ([]string, error) {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	results, err := r.store.Search(ctx, persona, queryVec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	texts := make([]string, 0, len(results))
	for _, res := range results {
		texts = append(texts, res.Text)
	}
	return texts, nil
}
