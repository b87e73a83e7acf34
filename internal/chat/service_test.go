package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persona-ai/cli/internal/db"
	"github.com/persona-ai/cli/internal/rag"
	"github.com/persona-ai/cli/internal/store"
	"github.com/persona-ai/cli/internal/store/memory"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type fakeCompleter struct {
	response string
	err      error

	gotPrompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.gotPrompts = append(f.gotPrompts, prompt)
	return f.response, f.err
}

type fakeStreamCompleter struct {
	deltas []string
	err    error

	gotPrompts []string
}

func (f *fakeStreamCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("non-streaming path should not be used")
}

func (f *fakeStreamCompleter) CompleteStream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.gotPrompts = append(f.gotPrompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	var full strings.Builder
	for _, delta := range f.deltas {
		full.WriteString(delta)
		onDelta(delta)
	}
	return full.String(), nil
}

type fakeLog struct {
	entries []*db.ConversationEntry
	err     error
}

func (f *fakeLog) AppendConversation(_ context.Context, entry *db.ConversationEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLog) GetConversationHistory(_ context.Context, userID, persona string, limit int) ([]*db.ConversationEntry, error) {
	var out []*db.ConversationEntry
	for _, entry := range f.entries {
		if entry.UserID == userID && entry.Persona == persona {
			out = append(out, entry)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// newTestService wires a service over an in-memory store seeded with one
// chunk for gandhi.
func newTestService(t *testing.T, embedder rag.Embedder, completer Completer, log ConversationLog) *Service {
	t.Helper()
	st := memory.New()
	err := st.Replace(context.Background(), "gandhi", []store.Chunk{
		{ID: "gandhi_0", Persona: "gandhi", Text: "truth is god", Embedding: []float32{1, 0}},
	})
	require.NoError(t, err)

	retriever := rag.NewRetriever(st, embedder, 3)
	return NewService(retriever, completer, log, "tester", nil)
}

func TestAskReturnsResponseAndLogsExchange(t *testing.T) {
	completer := &fakeCompleter{response: "Truth alone triumphs."}
	log := &fakeLog{}
	svc := newTestService(t, &fakeEmbedder{}, completer, log)

	response, err := svc.Ask(context.Background(), "gandhi", "What is truth?")
	require.NoError(t, err)
	assert.Equal(t, "Truth alone triumphs.", response)

	// The prompt carries the retrieved context and the query.
	require.Len(t, completer.gotPrompts, 1)
	assert.Contains(t, completer.gotPrompts[0], "truth is god")
	assert.Contains(t, completer.gotPrompts[0], "What is truth?")

	require.Len(t, log.entries, 1)
	entry := log.entries[0]
	assert.Equal(t, "tester", entry.UserID)
	assert.Equal(t, "gandhi", entry.Persona)
	assert.Equal(t, "What is truth?", entry.Query)
	assert.Equal(t, "Truth alone triumphs.", entry.Response)
	assert.NotEqual(t, entry.SessionID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestAskExchangesShareSessionID(t *testing.T) {
	log := &fakeLog{}
	svc := newTestService(t, &fakeEmbedder{}, &fakeCompleter{response: "ok"}, log)

	_, err := svc.Ask(context.Background(), "gandhi", "first")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "gandhi", "second")
	require.NoError(t, err)

	require.Len(t, log.entries, 2)
	assert.Equal(t, log.entries[0].SessionID, log.entries[1].SessionID)
	assert.NotEqual(t, log.entries[0].ID, log.entries[1].ID)
}

func TestAskCompletionFailureFallsBack(t *testing.T) {
	log := &fakeLog{}
	completer := &fakeCompleter{err: errors.New("model not loaded")}
	svc := newTestService(t, &fakeEmbedder{}, completer, log)

	response, err := svc.Ask(context.Background(), "gandhi", "What is truth?")
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, response)

	// The fallback exchange is still logged.
	require.Len(t, log.entries, 1)
	assert.Equal(t, FallbackResponse, log.entries[0].Response)
}

func TestAskRetrievalFailureAnswersWithoutContext(t *testing.T) {
	log := &fakeLog{}
	completer := &fakeCompleter{response: "answered anyway"}
	svc := newTestService(t, &fakeEmbedder{err: errors.New("embedder offline")}, completer, log)

	response, err := svc.Ask(context.Background(), "gandhi", "What is truth?")
	require.NoError(t, err)
	assert.Equal(t, "answered anyway", response)

	// The prompt was built with an empty context block.
	require.Len(t, completer.gotPrompts, 1)
	assert.NotContains(t, completer.gotPrompts[0], "truth is god")
	assert.Contains(t, completer.gotPrompts[0], "Context: \n")
}

func TestAskCanceledContextLogsNothing(t *testing.T) {
	log := &fakeLog{}
	svc := newTestService(t, &fakeEmbedder{}, &fakeCompleter{response: "never"}, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ask(ctx, "gandhi", "What is truth?")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log.entries)
}

func TestAskLogFailureStillReturnsResponse(t *testing.T) {
	log := &fakeLog{err: errors.New("database down")}
	svc := newTestService(t, &fakeEmbedder{}, &fakeCompleter{response: "still here"}, log)

	response, err := svc.Ask(context.Background(), "gandhi", "What is truth?")
	require.NoError(t, err)
	assert.Equal(t, "still here", response)
}

func TestAskUnseededPersonaGetsGenericPrompt(t *testing.T) {
	completer := &fakeCompleter{response: "hm"}
	svc := newTestService(t, &fakeEmbedder{}, completer, &fakeLog{})

	_, err := svc.Ask(context.Background(), "socrates", "What is virtue?")
	require.NoError(t, err)

	require.Len(t, completer.gotPrompts, 1)
	assert.True(t, strings.HasPrefix(completer.gotPrompts[0], "You are socrates."))
}

func TestAskStreamDeliversDeltasAndLogsFullResponse(t *testing.T) {
	log := &fakeLog{}
	completer := &fakeStreamCompleter{deltas: []string{"Truth ", "alone ", "triumphs."}}
	svc := newTestService(t, &fakeEmbedder{}, completer, log)

	var got []string
	response, err := svc.AskStream(context.Background(), "gandhi", "What is truth?", func(delta string) {
		got = append(got, delta)
	})
	require.NoError(t, err)
	assert.Equal(t, "Truth alone triumphs.", response)
	assert.Equal(t, []string{"Truth ", "alone ", "triumphs."}, got)

	require.Len(t, log.entries, 1)
	assert.Equal(t, "Truth alone triumphs.", log.entries[0].Response)
}

func TestAskStreamFallsBackToCompleteWithoutStreamingSupport(t *testing.T) {
	log := &fakeLog{}
	completer := &fakeCompleter{response: "plain answer"}
	svc := newTestService(t, &fakeEmbedder{}, completer, log)

	deltas := 0
	response, err := svc.AskStream(context.Background(), "gandhi", "What is truth?", func(string) {
		deltas++
	})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", response)
	assert.Zero(t, deltas)
}

func TestAskStreamFailureFallsBack(t *testing.T) {
	log := &fakeLog{}
	completer := &fakeStreamCompleter{err: errors.New("stream broken")}
	svc := newTestService(t, &fakeEmbedder{}, completer, log)

	response, err := svc.AskStream(context.Background(), "gandhi", "What is truth?", func(string) {})
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, response)

	require.Len(t, log.entries, 1)
	assert.Equal(t, FallbackResponse, log.entries[0].Response)
}

func TestHistoryScopedToUserAndPersona(t *testing.T) {
	log := &fakeLog{}
	svc := newTestService(t, &fakeEmbedder{}, &fakeCompleter{response: "ok"}, log)

	_, err := svc.Ask(context.Background(), "gandhi", "first")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "socrates", "other persona")
	require.NoError(t, err)

	entries, err := svc.History(context.Background(), "gandhi", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Query)
}
