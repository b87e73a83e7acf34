package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/persona-ai/cli/internal/db"
)

// personaRow is one line in the personas list: a stored collection, a
// source file not yet ingested, or both.
type personaRow struct {
	Name       string
	Info       *db.PersonaInfo
	SourcePath string
}

// PersonasView lists persona collections and triggers ingestion
type PersonasView struct {
	app  *App
	flex *tview.Flex
	list *tview.List
	info *tview.TextView
	rows []personaRow
}

// NewPersonasView creates a new personas view
func NewPersonasView(app *App) *PersonasView {
	pv := &PersonasView{
		app: app,
	}

	// Create list for personas
	pv.list = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			pv.chatWithSelected()
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			pv.showPersonaInfo(index)
		})
	pv.list.SetBorder(true).SetTitle(" Personas ")

	// Create info text view
	pv.info = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	pv.info.SetBorder(true).SetTitle(" Info ")

	// Create main flex layout
	pv.flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(
			tview.NewFlex().
				AddItem(pv.list, 0, 2, true).
				AddItem(pv.info, 0, 1, false),
			0, 1, true,
		).
		AddItem(
			tview.NewTextView().
				SetText("[yellow]Enter[white]: Chat | [yellow]i[white]: Ingest | [yellow]r[white]: Reload").
				SetDynamicColors(true),
			1, 0, false,
		)

	// Set up input capture
	pv.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'i', 'I':
			pv.ingestSelected()
			return nil
		case 'r', 'R':
			pv.reload()
			return nil
		}
		return event
	})

	pv.reload()

	return pv
}

// GetPrimitive returns the tview primitive
func (pv *PersonasView) GetPrimitive() tview.Primitive {
	return pv.flex
}

// reload merges stored collections with source files found in the
// configured sources directory.
func (pv *PersonasView) reload() {
	ctx := context.Background()

	byName := make(map[string]*personaRow)

	stored, err := pv.app.db.ListPersonas(ctx)
	if err != nil {
		pv.info.SetText(fmt.Sprintf("[red]Error loading personas: %v", err))
		return
	}
	for _, info := range stored {
		byName[info.Name] = &personaRow{Name: info.Name, Info: info}
	}

	for _, pattern := range []string{"*.txt", "*.pdf"} {
		files, _ := filepath.Glob(filepath.Join(pv.app.cfg.Paths.SourcesDir, pattern))
		for _, file := range files {
			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			row, ok := byName[name]
			if !ok {
				row = &personaRow{Name: name}
				byName[name] = row
			}
			row.SourcePath = file
		}
	}

	pv.rows = pv.rows[:0]
	for _, row := range byName {
		pv.rows = append(pv.rows, *row)
	}
	sort.Slice(pv.rows, func(i, j int) bool { return pv.rows[i].Name < pv.rows[j].Name })

	pv.list.Clear()
	for i, row := range pv.rows {
		status := "[red]No chunks"
		if row.Info != nil && row.Info.ChunkCount > 0 {
			status = fmt.Sprintf("[green]%d chunks", row.Info.ChunkCount)
		}
		source := "no source file"
		if row.SourcePath != "" {
			source = filepath.Base(row.SourcePath)
		}
		mainText := fmt.Sprintf("%d. %s", i+1, row.Name)
		secondaryText := fmt.Sprintf("%s[white] | %s", status, source)
		pv.list.AddItem(mainText, secondaryText, 0, nil)
	}

	if len(pv.rows) == 0 {
		pv.info.SetText(fmt.Sprintf(
			"[yellow]No personas found.\n\nDrop a <persona>.txt file into\n[white]%s[yellow]\nand press 'i' to ingest it.",
			pv.app.cfg.Paths.SourcesDir,
		))
		return
	}

	selected := pv.list.GetCurrentItem()
	if selected >= 0 && selected < len(pv.rows) {
		pv.showPersonaInfo(selected)
	}
}

// showPersonaInfo displays information about the selected persona
func (pv *PersonasView) showPersonaInfo(index int) {
	if index < 0 || index >= len(pv.rows) {
		return
	}

	row := pv.rows[index]
	var infoText strings.Builder
	infoText.WriteString(fmt.Sprintf("[white]Persona: [yellow]%s[white]\n", row.Name))

	if row.Info != nil {
		infoText.WriteString(fmt.Sprintf("Chunks: [cyan]%d[white]\n", row.Info.ChunkCount))
		if row.Info.Dimension != nil {
			infoText.WriteString(fmt.Sprintf("Dimension: [cyan]%d[white]\n", *row.Info.Dimension))
		}
		if row.Info.IngestedAt != nil {
			infoText.WriteString(fmt.Sprintf("Ingested: [gray]%s[white]\n", row.Info.IngestedAt.Format("2006-01-02 15:04:05")))
		}
	} else {
		infoText.WriteString("Chunks: [red]not ingested[white]\n")
	}

	if row.SourcePath != "" {
		infoText.WriteString(fmt.Sprintf("Source: [gray]%s[white]\n", row.SourcePath))
	} else {
		infoText.WriteString("\n[yellow]No source file found; chat will use the generic template context only.")
	}

	pv.info.SetText(infoText.String())
}

// chatWithSelected switches the chat view to the selected persona
func (pv *PersonasView) chatWithSelected() {
	selected := pv.list.GetCurrentItem()
	if selected < 0 || selected >= len(pv.rows) {
		return
	}
	pv.app.chatView.SetPersona(pv.rows[selected].Name)
	pv.app.pages.SwitchToPage("chat")
}

// ingestSelected rebuilds the selected persona's collection from its
// source file.
func (pv *PersonasView) ingestSelected() {
	selected := pv.list.GetCurrentItem()
	if selected < 0 || selected >= len(pv.rows) {
		return
	}
	row := pv.rows[selected]

	sourcePath := row.SourcePath
	if sourcePath == "" && row.Info != nil && row.Info.SourcePath != nil {
		sourcePath = *row.Info.SourcePath
	}
	if sourcePath == "" {
		pv.info.SetText(fmt.Sprintf("[red]No source file for %s.\nExpected %s",
			row.Name, filepath.Join(pv.app.cfg.Paths.SourcesDir, row.Name+".txt")))
		return
	}
	if _, err := os.Stat(sourcePath); err != nil {
		pv.info.SetText(fmt.Sprintf("[red]Source file missing: %s", sourcePath))
		return
	}

	pv.info.SetText(fmt.Sprintf("[yellow]Ingesting %s...", row.Name))

	// Run ingestion in a goroutine to avoid blocking the UI
	go func() {
		ctx := context.Background()
		count, err := pv.app.pipeline.Ingest(ctx, row.Name, sourcePath)

		pv.app.app.QueueUpdateDraw(func() {
			pv.reload()
			if err != nil {
				pv.info.SetText(fmt.Sprintf("[red]Error ingesting %s: %v", row.Name, err))
			} else if count == 0 {
				pv.info.SetText(fmt.Sprintf("[yellow]Source for %s was empty; stored 0 chunks", row.Name))
			} else {
				pv.info.SetText(fmt.Sprintf("[green]Stored %d chunks for %s", count, row.Name))
			}
		})
	}()
}
