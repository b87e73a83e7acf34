// Package embeddings wraps the Ollama embeddings API. The embedder is the
// opaque text-to-vector collaborator used at both ingestion and query time,
// so the same model must serve both sides.
package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEmbeddingFailed reports a failed embedding request. Query-time callers
// recover from it by proceeding without retrieved context.
var ErrEmbeddingFailed = errors.New("embedding request failed")

// TextEmbedder generates text embeddings using Ollama
type TextEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewTextEmbedder creates a new text embedder
func NewTextEmbedder(baseURL, model string) *TextEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text" // Default embedding model
	}
	return &TextEmbedder{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{},
	}
}

// Embed generates an embedding vector for the given text.
func (e *TextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmbeddingFailed)
	}

	url := fmt.Sprintf("%s/api/embeddings", e.baseURL)
	payload := map[string]interface{}{
		"model":  e.model,
		"prompt": text,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(string(jsonData)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama API error: %d - %s", ErrEmbeddingFailed, resp.StatusCode, string(body))
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrEmbeddingFailed, err)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrEmbeddingFailed)
	}

	return result.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *TextEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text: %w", err)
		}
		embeddings = append(embeddings, emb)
	}
	return embeddings, nil
}
