// Package chat orchestrates a persona query end to end: retrieve context,
// assemble the prompt, call the completion collaborator, log the exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/persona-ai/cli/internal/db"
	"github.com/persona-ai/cli/internal/rag"
)

// FallbackResponse is returned to the user when the completion
// collaborator fails. The request still succeeds from the user's view.
const FallbackResponse = "I'm having trouble responding right now. Please try again."

// ErrCompletionFailed reports a failed completion request.
var ErrCompletionFailed = errors.New("completion request failed")

// Completer generates text from a fully rendered prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StreamCompleter is an optional Completer extension that delivers the
// response incrementally while it is generated.
type StreamCompleter interface {
	CompleteStream(ctx context.Context, prompt string, onDelta func(string)) (string, error)
}

// ConversationLog persists finished exchanges and serves history.
type ConversationLog interface {
	AppendConversation(ctx context.Context, entry *db.ConversationEntry) error
	GetConversationHistory(ctx context.Context, userID, persona string, limit int) ([]*db.ConversationEntry, error)
}

// Service answers queries in a persona's voice. One Service represents one
// chat session; all its exchanges share a session id.
type Service struct {
	retriever *rag.Retriever
	completer Completer
	log       ConversationLog
	userID    string
	sessionID uuid.UUID
	logger    *slog.Logger
}

// NewService creates a chat service for one user session.
func NewService(retriever *rag.Retriever, completer Completer, log ConversationLog, userID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		retriever: retriever,
		completer: completer,
		log:       log,
		userID:    userID,
		sessionID: uuid.New(),
		logger:    logger,
	}
}

// Ask answers a query as the given persona. Retrieval failures degrade to
// answering without context and completion failures degrade to
// FallbackResponse, so the user always receives some response. The
// exchange is logged once a response text exists; a request aborted before
// that point logs nothing.
func (s *Service) Ask(ctx context.Context, persona, query string) (string, error) {
	return s.ask(ctx, persona, query, nil)
}

// AskStream answers like Ask but delivers the response through onDelta as
// it is generated, when the completer supports streaming. The returned
// string is always the complete response; only the complete exchange is
// logged.
func (s *Service) AskStream(ctx context.Context, persona, query string, onDelta func(string)) (string, error) {
	return s.ask(ctx, persona, query, onDelta)
}

func (s *Service) ask(ctx context.Context, persona, query string, onDelta func(string)) (string, error) {
	contextChunks, err := s.retriever.Retrieve(ctx, persona, query)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Warn("retrieval failed, answering without context",
			"persona", persona, "error", err)
		contextChunks = nil
	}

	prompt := rag.BuildPrompt(persona, contextChunks, query)

	response, err := s.complete(ctx, prompt, onDelta)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Warn("completion failed, using fallback response",
			"persona", persona, "error", fmt.Errorf("%w: %w", ErrCompletionFailed, err))
		response = FallbackResponse
	}

	entry := &db.ConversationEntry{
		ID:        uuid.New(),
		UserID:    s.userID,
		Persona:   persona,
		Query:     query,
		Response:  response,
		SessionID: s.sessionID,
		CreatedAt: time.Now(),
	}
	if err := s.log.AppendConversation(ctx, entry); err != nil {
		// The user still gets their response; only history is lost.
		s.logger.Warn("failed to log conversation", "persona", persona, "error", err)
	}

	return response, nil
}

// complete dispatches to the streaming path when the caller wants deltas
// and the completer can produce them.
func (s *Service) complete(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	if onDelta != nil {
		if sc, ok := s.completer.(StreamCompleter); ok {
			return sc.CompleteStream(ctx, prompt, onDelta)
		}
	}
	return s.completer.Complete(ctx, prompt)
}

// History returns the user's past exchanges with a persona, oldest first.
func (s *Service) History(ctx context.Context, persona string, limit int) ([]*db.ConversationEntry, error) {
	return s.log.GetConversationHistory(ctx, s.userID, persona, limit)
}
