package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/persona-ai/cli/internal/rag"
)

// DefaultPersona is the persona the chat opens with until another one is
// selected from the personas view.
const DefaultPersona = "gandhi"

// ChatView handles the persona chat interface using tview
type ChatView struct {
	app      *App
	flex     *tview.Flex
	messages *tview.TextView
	input    *tview.TextArea
	persona  string

	messagesData []Message
	loading      bool
}

// Message represents a chat message
type Message struct {
	Role    string
	Content string
}

// NewChatView creates a new chat view
func NewChatView(app *App) *ChatView {
	cv := &ChatView{
		app:          app,
		persona:      DefaultPersona,
		messagesData: []Message{},
	}

	// Create messages text view
	cv.messages = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetScrollable(true)
	cv.messages.SetBorder(true)
	cv.setTitle()

	// Create input text area (supports multi-line and wrapping)
	cv.input = tview.NewTextArea().
		SetPlaceholder("Ask something... (Ctrl+Enter to send)").
		SetWrap(true)

	// Handle Ctrl+Enter to send message
	cv.input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEnter && event.Modifiers()&tcell.ModCtrl != 0 {
			cv.sendMessage()
			return nil
		}
		return event
	})

	// Create main flex layout
	cv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(cv.messages, 0, 1, false).
		AddItem(cv.input, 3, 0, true)

	return cv
}

// GetPrimitive returns the tview primitive
func (cv *ChatView) GetPrimitive() tview.Primitive {
	return cv.flex
}

// SetPersona switches the conversation to another persona and clears the
// transcript. A response still pending for the old persona is dropped when
// it arrives.
func (cv *ChatView) SetPersona(persona string) {
	if persona == cv.persona {
		return
	}
	cv.persona = persona
	cv.messagesData = nil
	cv.loading = false
	cv.setTitle()
	cv.renderMessages()
}

// Persona returns the persona the chat is currently speaking as.
func (cv *ChatView) Persona() string {
	return cv.persona
}

func (cv *ChatView) setTitle() {
	marker := ""
	for _, known := range rag.KnownPersonas() {
		if known == cv.persona {
			marker = " ✦"
			break
		}
	}
	cv.messages.SetTitle(fmt.Sprintf(" Chatting with %s%s ", cv.persona, marker))
}

// sendMessage sends a message and gets a response
func (cv *ChatView) sendMessage() {
	userMsg := strings.TrimSpace(cv.input.GetText())
	if userMsg == "" || cv.loading {
		return
	}

	// Clear input
	cv.input.SetText("", false)
	cv.loading = true

	// Add user message
	cv.messagesData = append(cv.messagesData, Message{
		Role:    "user",
		Content: userMsg,
	})

	// Add placeholder for the persona's message
	cv.messagesData = append(cv.messagesData, Message{
		Role:    "assistant",
		Content: "[yellow]Thinking...",
	})
	cv.renderMessages()

	// Generate response asynchronously
	go cv.generateResponse(cv.persona, len(cv.messagesData)-1, userMsg)
}

// generateResponse answers the query through the chat service, streaming
// partial text into the transcript as it arrives.
func (cv *ChatView) generateResponse(persona string, index int, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var streamed strings.Builder
	response, err := cv.app.chatSvc.AskStream(ctx, persona, query, func(delta string) {
		streamed.WriteString(delta)
		partial := streamed.String()
		cv.app.app.QueueUpdateDraw(func() {
			cv.applyResponse(persona, index, partial, false)
		})
	})

	text := response
	if err != nil {
		text = fmt.Sprintf("[red]Error: %v", err)
	}
	cv.app.app.QueueUpdateDraw(func() {
		cv.applyResponse(persona, index, text, true)
	})
}

// applyResponse writes text into the transcript slot reserved for a
// request. A stale response, one whose persona was switched away or whose
// transcript was cleared while the request was in flight, is dropped.
func (cv *ChatView) applyResponse(persona string, index int, text string, done bool) {
	if done {
		cv.loading = false
	}
	if persona != cv.persona || index >= len(cv.messagesData) {
		return
	}
	cv.messagesData[index].Content = text
	cv.renderMessages()
}

// renderMessages updates the messages display
func (cv *ChatView) renderMessages() {
	var lines []string
	for _, msg := range cv.messagesData {
		if msg.Role == "user" {
			lines = append(lines, fmt.Sprintf("[cyan]You: %s[white]", msg.Content))
		} else {
			lines = append(lines, fmt.Sprintf("[white]%s: %s[white]", cv.persona, msg.Content))
		}
		lines = append(lines, "")
	}
	cv.messages.SetText(strings.Join(lines, "\n"))
	cv.messages.ScrollToEnd()
}
