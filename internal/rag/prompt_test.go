package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptKnownPersonas(t *testing.T) {
	chunks := []string{"first passage", "second passage"}

	prompt := BuildPrompt("gandhi", chunks, "What is truth?")
	assert.True(t, strings.HasPrefix(prompt, "You are Mahatma Gandhi."))
	assert.Contains(t, prompt, "first passage\nsecond passage")
	assert.Contains(t, prompt, "User: What is truth?")
	assert.True(t, strings.HasSuffix(prompt, "Gandhi:"))

	prompt = BuildPrompt("elonmusk", chunks, "Why Mars?")
	assert.True(t, strings.HasPrefix(prompt, "You are Elon Musk."))
	assert.True(t, strings.HasSuffix(prompt, "Elon Musk:"))
}

func TestBuildPromptUnknownPersonaFallsBack(t *testing.T) {
	prompt := BuildPrompt("socrates", []string{"know thyself"}, "What is virtue?")

	assert.True(t, strings.HasPrefix(prompt, "You are socrates."))
	assert.Contains(t, prompt, "Context: know thyself")
	assert.Contains(t, prompt, "User: What is virtue?")
	assert.True(t, strings.HasSuffix(prompt, "socrates:"))
}

func TestBuildPromptLookupIsCaseSensitive(t *testing.T) {
	prompt := BuildPrompt("Gandhi", nil, "hello")
	assert.True(t, strings.HasPrefix(prompt, "You are Gandhi."))
	assert.NotContains(t, prompt, "Mahatma")
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt := BuildPrompt("gandhi", nil, "What is truth?")
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "Context: \n")
	assert.Contains(t, prompt, "User: What is truth?")
}

func TestKnownPersonas(t *testing.T) {
	assert.Equal(t, []string{"elonmusk", "gandhi"}, KnownPersonas())
}
