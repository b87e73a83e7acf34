package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingChatView() *ChatView {
	cv := NewChatView(&App{})
	cv.messagesData = append(cv.messagesData,
		Message{Role: "user", Content: "What is truth?"},
		Message{Role: "assistant", Content: "[yellow]Thinking..."},
	)
	cv.loading = true
	return cv
}

func TestApplyResponseFillsPendingSlot(t *testing.T) {
	cv := pendingChatView()

	cv.applyResponse(DefaultPersona, 1, "Truth alone triumphs.", true)

	require.Len(t, cv.messagesData, 2)
	assert.Equal(t, "Truth alone triumphs.", cv.messagesData[1].Content)
	assert.False(t, cv.loading)
}

func TestApplyResponsePartialKeepsLoading(t *testing.T) {
	cv := pendingChatView()

	cv.applyResponse(DefaultPersona, 1, "Truth ", false)

	assert.Equal(t, "Truth ", cv.messagesData[1].Content)
	assert.True(t, cv.loading)
}

func TestApplyResponseDroppedAfterPersonaSwitch(t *testing.T) {
	cv := pendingChatView()

	// Switching personas clears the transcript while a response is still
	// in flight. The late response must be dropped, not applied to the
	// now-empty transcript.
	cv.SetPersona("elonmusk")
	require.Empty(t, cv.messagesData)
	assert.False(t, cv.loading)

	cv.applyResponse(DefaultPersona, 1, "late answer", true)

	assert.Empty(t, cv.messagesData)
	assert.False(t, cv.loading)
}

func TestApplyResponseIgnoresOutOfRangeSlot(t *testing.T) {
	cv := NewChatView(&App{})

	cv.applyResponse(DefaultPersona, 5, "orphaned", true)

	assert.Empty(t, cv.messagesData)
	assert.False(t, cv.loading)
}

func TestSetPersonaResetsPendingState(t *testing.T) {
	cv := pendingChatView()

	cv.SetPersona("socrates")

	assert.Equal(t, "socrates", cv.Persona())
	assert.Empty(t, cv.messagesData)
	assert.False(t, cv.loading)
}
