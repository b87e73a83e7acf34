package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// HistoryView shows past exchanges with the current persona
type HistoryView struct {
	app  *App
	flex *tview.Flex
	text *tview.TextView
}

// NewHistoryView creates a new history view
func NewHistoryView(app *App) *HistoryView {
	hv := &HistoryView{
		app: app,
	}

	// Create history text view
	hv.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetScrollable(true)
	hv.text.SetBorder(true).SetTitle(" History ")

	// Create main flex layout
	hv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(hv.text, 0, 1, true).
		AddItem(
			tview.NewTextView().
				SetText("[yellow]r[white]: Reload | [yellow]Esc[white]: Back").
				SetDynamicColors(true),
			1, 0, false,
		)

	hv.text.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'r', 'R':
			hv.reload()
			return nil
		}
		return event
	})

	return hv
}

// GetPrimitive returns the tview primitive
func (hv *HistoryView) GetPrimitive() tview.Primitive {
	return hv.flex
}

// reload fetches stored exchanges for the persona the chat is set to
func (hv *HistoryView) reload() {
	persona := hv.app.chatView.Persona()
	hv.text.SetTitle(fmt.Sprintf(" History: %s ", persona))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := hv.app.chatSvc.History(ctx, persona, hv.app.cfg.Chat.HistoryLimit)
	if err != nil {
		hv.text.SetText(fmt.Sprintf("[red]Error loading history: %v", err))
		return
	}

	if len(entries) == 0 {
		hv.text.SetText(fmt.Sprintf("[gray]No conversations with %s yet.", persona))
		return
	}

	var lines []string
	for _, entry := range entries {
		lines = append(lines,
			fmt.Sprintf("[gray]%s[white]", entry.CreatedAt.Format("2006-01-02 15:04:05")),
			fmt.Sprintf("[cyan]You: %s[white]", entry.Query),
			fmt.Sprintf("[white]%s: %s", entry.Persona, entry.Response),
			"",
		)
	}
	hv.text.SetText(strings.Join(lines, "\n"))
	hv.text.ScrollToEnd()
}
