package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/persona-ai/cli/internal/ollama"
)

// Ensure OllamaCompleter implements both interfaces.
var (
	_ Completer       = (*OllamaCompleter)(nil)
	_ StreamCompleter = (*OllamaCompleter)(nil)
)

// OllamaCompleter adapts the Ollama generate API to the Completer
// interface.
type OllamaCompleter struct {
	client *ollama.Client
	model  string
}

// NewOllamaCompleter creates a completer bound to one model.
func NewOllamaCompleter(client *ollama.Client, model string) *OllamaCompleter {
	return &OllamaCompleter{client: client, model: model}
}

// Complete generates a response for the prompt.
func (c *OllamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	response, err := c.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	return response, nil
}

// CompleteStream generates a response, invoking onDelta for each chunk of
// text as it arrives, and returns the full accumulated text.
func (c *OllamaCompleter) CompleteStream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	var full strings.Builder
	err := c.client.GenerateStream(ctx, &ollama.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
	}, func(chunk string) {
		full.WriteString(chunk)
		onDelta(chunk)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	return full.String(), nil
}
