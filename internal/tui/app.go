package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/persona-ai/cli/config"
	"github.com/persona-ai/cli/internal/chat"
	"github.com/persona-ai/cli/internal/db"
	"github.com/persona-ai/cli/internal/embeddings"
	"github.com/persona-ai/cli/internal/ingest"
	"github.com/persona-ai/cli/internal/ollama"
	"github.com/persona-ai/cli/internal/rag"
	"github.com/persona-ai/cli/internal/store/postgres"
)

// App represents the main TUI application using tview
type App struct {
	app      *tview.Application
	pages    *tview.Pages
	db       *db.DB
	pipeline *ingest.Pipeline
	chatSvc  *chat.Service
	cfg      *config.Config
	model    string

	// Views
	dashboardView *DashboardView
	chatView      *ChatView
	personasView  *PersonasView
	historyView   *HistoryView
	settingsView  *SettingsView
}

// NewApp creates a new TUI application
func NewApp(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.New(cfg.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize collaborators
	embedder := embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel)
	vectorStore := postgres.New(database.Pool())
	ollamaClient := ollama.NewClient(cfg.Ollama.BaseURL)
	modelSelector := ollama.NewModelSelector(ollamaClient)

	// Select the chat model
	model, err := modelSelector.GetDefaultModel(context.Background(), cfg.Ollama.ChatModel)
	if err != nil {
		model = "llama3.2" // Fallback
	}

	// Initialize the ingestion pipeline
	pipeline, err := ingest.New(vectorStore, embedder, cfg.Chunking.ChunkSize, cfg.Chunking.Overlap, slog.Default())
	if err != nil {
		database.Close()
		return nil, err
	}

	// Initialize the chat service
	retriever := rag.NewRetriever(vectorStore, embedder, cfg.Retrieval.TopK)
	completer := chat.NewOllamaCompleter(ollamaClient, model)
	chatSvc := chat.NewService(retriever, completer, database, cfg.Chat.UserID, slog.Default())

	app := &App{
		db:       database,
		pipeline: pipeline,
		chatSvc:  chatSvc,
		cfg:      cfg,
		model:    model,
	}

	// Initialize tview application
	app.app = tview.NewApplication()
	app.pages = tview.NewPages()

	// Initialize views (chat first so the dashboard can show its persona)
	app.chatView = NewChatView(app)
	app.dashboardView = NewDashboardView(app)
	app.personasView = NewPersonasView(app)
	app.historyView = NewHistoryView(app)
	app.settingsView = NewSettingsView(app)

	// Add pages
	app.pages.AddPage("dashboard", app.dashboardView.GetPrimitive(), true, true)
	app.pages.AddPage("chat", app.chatView.GetPrimitive(), true, false)
	app.pages.AddPage("personas", app.personasView.GetPrimitive(), true, false)
	app.pages.AddPage("history", app.historyView.GetPrimitive(), true, false)
	app.pages.AddPage("settings", app.settingsView.GetPrimitive(), true, false)

	// Set root
	app.app.SetRoot(app.pages, true).SetFocus(app.pages)

	// Set focus and reload data when switching pages
	app.pages.SetChangedFunc(func() {
		name, _ := app.pages.GetFrontPage()
		switch name {
		case "chat":
			app.app.SetFocus(app.chatView.input)
		case "history":
			app.historyView.reload()
		case "personas":
			app.personasView.reload()
		}
	})

	// Set up global key handlers
	app.setupGlobalKeys()

	return app, nil
}

// setupGlobalKeys sets up global keyboard shortcuts
func (a *App) setupGlobalKeys() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		name, _ := a.pages.GetFrontPage()
		if name == "chat" {
			// In chat view, let the chat input handle typing.
			// Only intercept Esc and Ctrl+C
			switch event.Key() {
			case tcell.KeyCtrlC:
				a.app.Stop()
				return nil
			case tcell.KeyEsc:
				a.pages.SwitchToPage("dashboard")
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyCtrlC:
			a.app.Stop()
			return nil
		case tcell.KeyEsc:
			if name == "dashboard" {
				a.app.Stop()
				return nil
			}
			a.pages.SwitchToPage("dashboard")
			return nil
		}

		// Number keys for navigation (only outside the chat input)
		switch event.Rune() {
		case '0':
			a.pages.SwitchToPage("dashboard")
			return nil
		case '1':
			a.pages.SwitchToPage("chat")
			return nil
		case '2':
			a.pages.SwitchToPage("personas")
			return nil
		case '3':
			a.pages.SwitchToPage("history")
			return nil
		case '4':
			a.pages.SwitchToPage("settings")
			return nil
		}

		return event
	})
}

// Run starts the TUI application
func (a *App) Run() error {
	defer a.db.Close()
	return a.app.Run()
}
