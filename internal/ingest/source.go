package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrSourceNotFound reports a missing or unreadable persona source file.
var ErrSourceNotFound = errors.New("source file not found")

// LoadSource reads the full text of a persona source file. Plain text is
// read wholesale as UTF-8; PDFs are extracted page by page.
func LoadSource(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}

	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return extractPDFText(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source %s: %w", path, err)
	}
	return string(data), nil
}

// extractPDFText extracts the text of every page of a PDF.
func extractPDFText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer doc.Close()

	var textParts []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err == nil && strings.TrimSpace(text) != "" {
			textParts = append(textParts, text)
		}
	}

	return strings.Join(textParts, "\n\n"), nil
}
