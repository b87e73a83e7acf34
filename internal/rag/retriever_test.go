package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persona-ai/cli/internal/store"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

type fakeStore struct {
	results []store.SearchResult
	err     error

	gotPersona string
	gotQuery   []float32
	gotK       int
}

func (f *fakeStore) GetOrCreate(context.Context, string) error { return nil }
func (f *fakeStore) Rebuild(context.Context, string) error     { return nil }
func (f *fakeStore) UpsertBatch(context.Context, string, []store.Chunk) error {
	return nil
}
func (f *fakeStore) Replace(context.Context, string, []store.Chunk) error {
	return nil
}

func (f *fakeStore) Search(_ context.Context, persona string, query []float32, k int) ([]store.SearchResult, error) {
	f.gotPersona = persona
	f.gotQuery = query
	f.gotK = k
	return f.results, f.err
}

func TestRetrieveReturnsOrderedTexts(t *testing.T) {
	st := &fakeStore{results: []store.SearchResult{
		{Text: "best", Score: 0.9},
		{Text: "good", Score: 0.5},
		{Text: "weak", Score: 0.1},
	}}
	r := NewRetriever(st, &fakeEmbedder{vector: []float32{1, 0}}, 3)

	texts, err := r.Retrieve(context.Background(), "gandhi", "what is truth")
	require.NoError(t, err)
	assert.Equal(t, []string{"best", "good", "weak"}, texts)

	assert.Equal(t, "gandhi", st.gotPersona)
	assert.Equal(t, []float32{1, 0}, st.gotQuery)
	assert.Equal(t, 3, st.gotK)
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	st := &fakeStore{}
	r := NewRetriever(st, &fakeEmbedder{err: errors.New("connection refused")}, 3)

	texts, err := r.Retrieve(context.Background(), "gandhi", "query")
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.Nil(t, texts)
}

func TestRetrieveStoreFailure(t *testing.T) {
	st := &fakeStore{err: errors.New("connection reset")}
	r := NewRetriever(st, &fakeEmbedder{vector: []float32{1}}, 3)

	texts, err := r.Retrieve(context.Background(), "gandhi", "query")
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.Nil(t, texts)
}

func TestRetrieveUnseededPersonaIsEmptyNotError(t *testing.T) {
	st := &fakeStore{results: nil}
	r := NewRetriever(st, &fakeEmbedder{vector: []float32{1}}, 3)

	texts, err := r.Retrieve(context.Background(), "nobody", "query")
	assert.NoError(t, err)
	assert.Empty(t, texts)
}

func TestNewRetrieverDefaultsTopK(t *testing.T) {
	st := &fakeStore{}
	r := NewRetriever(st, &fakeEmbedder{vector: []float32{1}}, 0)

	_, err := r.Retrieve(context.Background(), "gandhi", "query")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, st.gotK)
}
