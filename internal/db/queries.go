package db

import (
	"context"
	"fmt"
)

// AppendConversation saves a finished exchange to the conversation log.
func (db *DB) AppendConversation(ctx context.Context, entry *ConversationEntry) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO conversations (id, user_id, persona, user_message, assistant_message, session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Persona, entry.Query, entry.Response,
		entry.SessionID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append conversation: %w", err)
	}
	return nil
}

// GetConversationHistory retrieves a user's exchanges with a persona,
// ascending by timestamp.
func (db *DB) GetConversationHistory(ctx context.Context, userID, persona string, limit int) ([]*ConversationEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, persona, user_message, assistant_message, session_id, created_at
		 FROM conversations
		 WHERE user_id = $1 AND persona = $2
		 ORDER BY created_at ASC
		 LIMIT $3`,
		userID, persona, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	defer rows.Close()

	var entries []*ConversationEntry
	for rows.Next() {
		var entry ConversationEntry
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Persona,
			&entry.Query, &entry.Response, &entry.SessionID, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ListPersonas retrieves all persona collections with their chunk counts.
func (db *DB) ListPersonas(ctx context.Context) ([]*PersonaInfo, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.name, p.dimension, p.source_path, p.ingested_at, COUNT(c.id)
		 FROM personas p
		 LEFT JOIN persona_chunks c ON c.persona = p.name
		 GROUP BY p.name, p.dimension, p.source_path, p.ingested_at
		 ORDER BY p.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	defer rows.Close()

	var personas []*PersonaInfo
	for rows.Next() {
		var info PersonaInfo
		if err := rows.Scan(
			&info.Name, &info.Dimension, &info.SourcePath, &info.IngestedAt, &info.ChunkCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}
		personas = append(personas, &info)
	}
	return personas, rows.Err()
}

// GetStats returns aggregate counts for the dashboard.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := db.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM personas),
			(SELECT COUNT(*) FROM persona_chunks),
			(SELECT COUNT(*) FROM conversations)`,
	).Scan(&stats.Personas, &stats.Chunks, &stats.Conversations)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
