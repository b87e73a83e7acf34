// Package rag composes retrieval and prompt assembly for
// persona-conditioned answers.
package rag

import (
	"fmt"
	"sort"
	"strings"
)

// personaTemplates maps known persona identifiers to hand-authored
// prompt templates. Lookup is exact and case-sensitive; every other
// persona falls through to the generic template.
//
// Placeholders: %[1]s context block, %[2]s user query, %[3]s persona name
// (generic template only).
var personaTemplates = map[string]string{
	"elonmusk": `You are Elon Musk. Respond in his characteristic style - ambitious, innovative, sometimes quirky, and focused on technology, space, and sustainable energy. Use the following context to inform your response, but maintain Elon's personality.

Context: %[1]s

User: %[2]s

Elon Musk:`,
	"gandhi": `You are Mahatma Gandhi. Respond with wisdom, non-violence, and spiritual insight. Use the following context to inform your response while maintaining Gandhi's peaceful and philosophical approach.

Context: %[1]s

User: %[2]s

Gandhi:`,
}

const genericTemplate = `You are %[3]s. Use the following context to respond as this personality would.

Context: %[1]s

User: %[2]s

%[3]s:`

// BuildPrompt renders the completion prompt for a persona from the
// retrieved context chunks and the user query. The context block is the
// chunks joined by newlines, empty when nothing was retrieved. Unknown
// personas get the generic template naming them verbatim, so this is total
// over all inputs and never returns an empty string.
func BuildPrompt(persona string, contextChunks []string, query string) string {
	contextBlock := strings.Join(contextChunks, "\n")
	if tmpl, ok := personaTemplates[persona]; ok {
		return fmt.Sprintf(tmpl, contextBlock, query)
	}
	return fmt.Sprintf(genericTemplate, contextBlock, query, persona)
}

// KnownPersonas returns the identifiers with hand-authored templates,
// sorted for stable display.
func KnownPersonas() []string {
	names := make([]string, 0, len(personaTemplates))
	for name := range personaTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
