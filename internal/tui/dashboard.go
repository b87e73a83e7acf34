package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/persona-ai/cli/internal/db"
)

// DashboardView shows overall status and statistics using tview
type DashboardView struct {
	app    *App
	flex   *tview.Flex
	status *tview.TextView
	stats  *tview.TextView
	menu   *tview.List

	statsData db.Stats
}

// NewDashboardView creates a new dashboard view
func NewDashboardView(app *App) *DashboardView {
	dv := &DashboardView{
		app: app,
	}

	// Create status text view
	dv.status = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	dv.status.SetBorder(true).SetTitle(" Status ")

	// Create stats text view
	dv.stats = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	dv.stats.SetBorder(true).SetTitle(" Statistics ")

	// Create menu list
	dv.menu = tview.NewList().
		AddItem("Chat Console", "Talk to the current persona", '1', func() {
			app.pages.SwitchToPage("chat")
		}).
		AddItem("Personas", "Browse and ingest persona sources", '2', func() {
			app.pages.SwitchToPage("personas")
		}).
		AddItem("History", "Review past conversations", '3', func() {
			app.pages.SwitchToPage("history")
		}).
		AddItem("Settings", "View application settings", '4', func() {
			app.pages.SwitchToPage("settings")
		}).
		AddItem("Quit", "Press to exit", 'q', func() {
			app.app.Stop()
		})
	dv.menu.SetBorder(true).SetTitle(" Navigation ")

	// Create main flex layout
	dv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(dv.status, 5, 0, false).
		AddItem(
			tview.NewFlex().
				AddItem(dv.stats, 0, 1, false).
				AddItem(dv.menu, 0, 1, true),
			0, 1, true,
		)

	dv.render()

	// Update stats periodically
	go dv.updateStatsLoop()

	return dv
}

// GetPrimitive returns the tview primitive
func (dv *DashboardView) GetPrimitive() tview.Primitive {
	return dv.flex
}

// updateStatsLoop updates statistics periodically
func (dv *DashboardView) updateStatsLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		dv.updateStats()
		dv.app.app.QueueUpdateDraw(func() {
			dv.render()
		})
	}
}

// updateStats fetches current statistics
func (dv *DashboardView) updateStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := dv.app.db.GetStats(ctx)
	if err != nil {
		return
	}
	dv.statsData = *stats
}

// render updates the display
func (dv *DashboardView) render() {
	statusText := fmt.Sprintf("[green]●[white] Ready\nModel: [cyan]%s[white]\nPersona: [yellow]%s[white]",
		dv.app.model, dv.app.chatView.Persona())
	dv.status.SetText(statusText)

	statsText := fmt.Sprintf(`Personas: [yellow]%d[white]
Chunks: [yellow]%d[white]
Conversations: [yellow]%d[white]`,
		dv.statsData.Personas,
		dv.statsData.Chunks,
		dv.statsData.Conversations,
	)
	dv.stats.SetText(statsText)
}
