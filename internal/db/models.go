package db

import (
	"time"

	"github.com/google/uuid"
)

// ConversationEntry is one finished query/response exchange. Entries are
// immutable after creation and ordered by CreatedAt for history retrieval.
type ConversationEntry struct {
	ID        uuid.UUID
	UserID    string
	Persona   string
	Query     string
	Response  string
	SessionID uuid.UUID
	CreatedAt time.Time
}

// PersonaInfo summarizes a persona's stored chunk collection.
type PersonaInfo struct {
	Name       string
	Dimension  *int
	SourcePath *string
	ChunkCount int
	IngestedAt *time.Time
}

// Stats holds aggregate counts for the dashboard.
type Stats struct {
	Personas      int
	Chunks        int
	Conversations int
}
