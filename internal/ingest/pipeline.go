// Package ingest rebuilds persona vector collections from source files.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/persona-ai/cli/internal/chunker"
	"github.com/persona-ai/cli/internal/rag"
	"github.com/persona-ai/cli/internal/store"
)

// Pipeline chunks a persona's source text, embeds each chunk, and replaces
// the persona's collection with the result.
type Pipeline struct {
	store    store.VectorStore
	embedder rag.Embedder
	chunker  *chunker.Chunker
	logger   *slog.Logger
}

// New validates the chunking parameters and creates a pipeline.
func New(st store.VectorStore, embedder rag.Embedder, chunkSize, overlap int, logger *slog.Logger) (*Pipeline, error) {
	ck, err := chunker.New(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    st,
		embedder: embedder,
		chunker:  ck,
		logger:   logger,
	}, nil
}

// Ingest replaces the persona's collection with embedded chunks of the
// source file and returns the number of chunks stored. Whitespace-only
// chunks are dropped but keep their position in the chunk sequence, so ids
// stay traceable to the source. An empty source stores zero chunks and is
// reported as a warning, not a failure. Re-running with the same source
// and a deterministic embedder yields an identical collection.
func (p *Pipeline) Ingest(ctx context.Context, persona, sourcePath string) (int, error) {
	text, err := LoadSource(sourcePath)
	if err != nil {
		return 0, err
	}

	raw := p.chunker.Chunk(text)
	chunks := make([]store.Chunk, 0, len(raw))
	for i, chunkText := range raw {
		if strings.TrimSpace(chunkText) == "" {
			continue
		}
		embedding, err := p.embedder.Embed(ctx, chunkText)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d for %s: %w", i, persona, err)
		}
		chunks = append(chunks, store.Chunk{
			ID:         fmt.Sprintf("%s_%d", persona, i),
			Persona:    persona,
			Index:      i,
			Text:       chunkText,
			SourcePath: sourcePath,
			Embedding:  embedding,
		})
	}

	if err := p.store.Replace(ctx, persona, chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks for %s: %w", persona, err)
	}

	if len(chunks) == 0 {
		p.logger.Warn("no chunks stored", "persona", persona, "source", sourcePath)
	} else {
		p.logger.Info("persona collection rebuilt", "persona", persona, "chunks", len(chunks))
	}
	return len(chunks), nil
}
