package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persona-ai/cli/internal/chunker"
	"github.com/persona-ai/cli/internal/store"
	"github.com/persona-ai/cli/internal/store/memory"
)

// hashEmbedder is deterministic: the same text always yields the same
// vector, so re-ingesting a source rebuilds an identical collection.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("embedder offline")
}

// recordingStore captures Replace calls so tests can inspect the chunks
// the pipeline produced.
type recordingStore struct {
	*memory.Store
	replaced [][]store.Chunk
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memory.New()}
}

func (r *recordingStore) Replace(ctx context.Context, persona string, chunks []store.Chunk) error {
	r.replaced = append(r.replaced, chunks)
	return r.Store.Replace(ctx, persona, chunks)
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestSmallSourceSingleChunk(t *testing.T) {
	st := newRecordingStore()
	p, err := New(st, hashEmbedder{}, 500, 50, nil)
	require.NoError(t, err)

	path := writeSource(t, "gandhi.txt", "an eye for an eye makes blind")
	count, err := p.Ingest(context.Background(), "gandhi", path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, st.replaced, 1)
	require.Len(t, st.replaced[0], 1)
	got := st.replaced[0][0]
	assert.Equal(t, "gandhi_0", got.ID)
	assert.Equal(t, "gandhi", got.Persona)
	assert.Equal(t, 0, got.Index)
	assert.Equal(t, "an eye for an eye makes blind", got.Text)
	assert.Equal(t, path, got.SourcePath)
	assert.NotEmpty(t, got.Embedding)
}

func TestIngestChunkIDsFollowSequence(t *testing.T) {
	st := newRecordingStore()
	p, err := New(st, hashEmbedder{}, 10, 2, nil)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	path := writeSource(t, "gandhi.txt", b.String())

	count, err := p.Ingest(context.Background(), "gandhi", path)
	require.NoError(t, err)
	require.Greater(t, count, 1)

	require.Len(t, st.replaced, 1)
	for i, ch := range st.replaced[0] {
		assert.Equal(t, fmt.Sprintf("gandhi_%d", i), ch.ID)
		assert.Equal(t, i, ch.Index)
	}
}

func TestIngestMissingSource(t *testing.T) {
	p, err := New(memory.New(), hashEmbedder{}, 500, 50, nil)
	require.NoError(t, err)

	count, err := p.Ingest(context.Background(), "gandhi", "/nonexistent/gandhi.txt")
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Zero(t, count)
}

func TestIngestEmptySourceStoresNothing(t *testing.T) {
	st := newRecordingStore()
	p, err := New(st, hashEmbedder{}, 500, 50, nil)
	require.NoError(t, err)

	path := writeSource(t, "gandhi.txt", "   \n\t  \n")
	count, err := p.Ingest(context.Background(), "gandhi", path)
	assert.NoError(t, err)
	assert.Zero(t, count)

	require.Len(t, st.replaced, 1)
	assert.Empty(t, st.replaced[0])
}

func TestIngestIdempotent(t *testing.T) {
	st := newRecordingStore()
	p, err := New(st, hashEmbedder{}, 10, 2, nil)
	require.NoError(t, err)

	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	path := writeSource(t, "gandhi.txt", b.String())

	first, err := p.Ingest(context.Background(), "gandhi", path)
	require.NoError(t, err)
	second, err := p.Ingest(context.Background(), "gandhi", path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, st.replaced, 2)
	assert.Equal(t, st.replaced[0], st.replaced[1])
}

func TestIngestEmbedderFailure(t *testing.T) {
	st := newRecordingStore()
	p, err := New(st, failingEmbedder{}, 500, 50, nil)
	require.NoError(t, err)

	path := writeSource(t, "gandhi.txt", "some source text")
	count, err := p.Ingest(context.Background(), "gandhi", path)
	assert.Error(t, err)
	assert.Zero(t, count)
	// Nothing reaches the store when embedding fails.
	assert.Empty(t, st.replaced)
}

func TestNewRejectsInvalidChunking(t *testing.T) {
	_, err := New(memory.New(), hashEmbedder{}, 100, 100, nil)
	assert.ErrorIs(t, err, chunker.ErrInvalidChunking)
}
