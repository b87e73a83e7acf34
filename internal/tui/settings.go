package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rivo/tview"
)

// SettingsView displays and allows editing settings using tview
type SettingsView struct {
	app  *App
	flex *tview.Flex
	form *tview.Form
	text *tview.TextView
}

// NewSettingsView creates a new settings view
func NewSettingsView(app *App) *SettingsView {
	sv := &SettingsView{
		app: app,
	}
	cfg := app.cfg

	// Create form for the settings worth changing from the UI
	sv.form = tview.NewForm().
		AddInputField("Sources Directory", cfg.Paths.SourcesDir, 0, nil, func(text string) {
			cfg.Paths.SourcesDir = expandHome(text)
		}).
		AddInputField("Chunk Size (words)", strconv.Itoa(cfg.Chunking.ChunkSize), 0, nil, func(text string) {
			if n, err := strconv.Atoi(text); err == nil && n > 0 {
				cfg.Chunking.ChunkSize = n
			}
		}).
		AddInputField("Chunk Overlap (words)", strconv.Itoa(cfg.Chunking.Overlap), 0, nil, func(text string) {
			if n, err := strconv.Atoi(text); err == nil && n >= 0 {
				cfg.Chunking.Overlap = n
			}
		}).
		AddInputField("Top K", strconv.Itoa(cfg.Retrieval.TopK), 0, nil, func(text string) {
			if n, err := strconv.Atoi(text); err == nil && n > 0 {
				cfg.Retrieval.TopK = n
			}
		}).
		AddButton("Save", func() {
			sv.saveSettings()
		})
	sv.form.SetBorder(true).SetTitle(" Edit Settings ")

	// Create info text view
	sv.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	sv.text.SetBorder(true).SetTitle(" Current Settings ")

	// Create main flex layout
	sv.flex = tview.NewFlex().
		AddItem(sv.form, 0, 1, true).
		AddItem(sv.text, 0, 1, false)

	sv.render()

	return sv
}

// GetPrimitive returns the tview primitive
func (sv *SettingsView) GetPrimitive() tview.Primitive {
	return sv.flex
}

// saveSettings writes the edited config back to disk. Chunking and
// retrieval changes take effect on the next start.
func (sv *SettingsView) saveSettings() {
	if sv.app.cfg.Chunking.Overlap >= sv.app.cfg.Chunking.ChunkSize {
		sv.text.SetText("[red]Overlap must be smaller than chunk size.")
		return
	}

	if err := sv.app.cfg.Save(); err != nil {
		sv.text.SetText(fmt.Sprintf("[red]Error saving settings: %v", err))
		return
	}

	sv.render()
	sv.text.SetText(sv.text.GetText(false) + "\n[green]Settings saved. Restart to apply chunking changes.")
}

// render updates the settings display
func (sv *SettingsView) render() {
	cfg := sv.app.cfg

	chatModel := cfg.Ollama.ChatModel
	if chatModel == "" {
		chatModel = fmt.Sprintf("(auto: %s)", sv.app.model)
	}

	settingsText := fmt.Sprintf(`[white]Database:
  Connection: [cyan]%s[white]

Ollama:
  Base URL: [cyan]%s[white]
  Chat Model: [cyan]%s[white]
  Embedding Model: [cyan]%s[white]

Chunking:
  Chunk Size: [cyan]%d[white] words
  Overlap: [cyan]%d[white] words

Retrieval:
  Top K: [cyan]%d[white]

Chat:
  User ID: [cyan]%s[white]
  History Limit: [cyan]%d[white]

Sources Directory:
  [cyan]%s[white]`,
		cfg.Database.ConnectionString,
		cfg.Ollama.BaseURL,
		chatModel,
		cfg.Ollama.EmbeddingModel,
		cfg.Chunking.ChunkSize,
		cfg.Chunking.Overlap,
		cfg.Retrieval.TopK,
		cfg.Chat.UserID,
		cfg.Chat.HistoryLimit,
		cfg.Paths.SourcesDir,
	)

	sv.text.SetText(settingsText)
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir := os.Getenv("HOME")
		return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}
	return path
}
