// Package chunker splits persona source text into overlapping word windows
// for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// ErrInvalidChunking reports a chunk size / overlap combination whose step
// would be zero or negative and therefore never advance.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunker splits text into fixed-size overlapping windows of words.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New validates the window parameters and returns a Chunker. The overlap
// must be smaller than the chunk size so the window step stays positive.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text on whitespace and emits windows of chunkSize words,
// stepping by chunkSize-overlap. The last window always reaches the end of
// the text, even when the word count does not divide evenly. Chunks are
// joined back with single spaces and returned in source order.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	var chunks []string
	for i := 0; ; i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if i+c.chunkSize >= len(words) {
			break
		}
	}
	return chunks
}

// Split validates the parameters and chunks text in one call.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	c, err := New(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text), nil
}
