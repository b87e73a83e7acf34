// Package postgres implements the persona vector collection store on
// Postgres with the pgvector extension.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/persona-ai/cli/internal/store"
)

// Ensure Store implements the interface.
var _ store.VectorStore = (*Store)(nil)

// Store keeps persona collections in the personas / persona_chunks tables.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store on an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetOrCreate inserts the persona row if it does not exist yet.
func (s *Store) GetOrCreate(ctx context.Context, persona string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO personas (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		persona,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection for %s: %w", persona, err)
	}
	return nil
}

// Rebuild deletes the persona's chunks and resets its recorded
// dimensionality, leaving an empty collection under the same name.
func (s *Store) Rebuild(ctx context.Context, persona string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := clearCollection(ctx, tx, persona); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rebuild for %s: %w", persona, err)
	}
	return nil
}

// UpsertBatch inserts all chunks in one transaction. The batch must be
// internally consistent and match any dimensionality already recorded for
// the collection.
func (s *Store) UpsertBatch(ctx context.Context, persona string, chunks []store.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	dim, err := batchDimension(chunks)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := checkDimension(ctx, tx, persona, dim); err != nil {
		return err
	}
	if err := insertChunks(ctx, tx, chunks); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert for %s: %w", persona, err)
	}
	return nil
}

// Replace swaps the persona's collection contents for the given chunks in
// a single transaction. Concurrent searches see the old generation until
// the commit and the new one after it.
func (s *Store) Replace(ctx context.Context, persona string, chunks []store.Chunk) error {
	dim, err := batchDimension(chunks)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := clearCollection(ctx, tx, persona); err != nil {
		return err
	}
	if len(chunks) > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE personas SET dimension = $2, source_path = $3, ingested_at = NOW() WHERE name = $1`,
			persona, dim, chunks[0].SourcePath,
		)
		if err != nil {
			return fmt.Errorf("failed to record collection metadata: %w", err)
		}
		if err := insertChunks(ctx, tx, chunks); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit replace for %s: %w", persona, err)
	}
	return nil
}

// Search finds the k nearest chunks by cosine distance, reported as
// similarity 1-distance. The secondary sort on chunk_index keeps equal
// distances in insertion order.
func (s *Store) Search(ctx context.Context, persona string, query []float32, k int) ([]store.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	vec := pgvector.NewVector(query)
	rows, err := s.pool.Query(ctx,
		`SELECT content, 1 - (embedding <=> $2) AS similarity
		 FROM persona_chunks
		 WHERE persona = $1
		 ORDER BY embedding <=> $2, chunk_index
		 LIMIT $3`,
		persona, vec, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks for %s: %w", persona, err)
	}
	defer rows.Close()

	var results []store.SearchResult
	for rows.Next() {
		var res store.SearchResult
		if err := rows.Scan(&res.Text, &res.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// batchDimension verifies all chunks share one vector length and returns it.
// An empty batch reports dimension 0.
func batchDimension(chunks []store.Chunk) (int, error) {
	dim := 0
	for _, ch := range chunks {
		if dim == 0 {
			dim = len(ch.Embedding)
		}
		if len(ch.Embedding) == 0 || len(ch.Embedding) != dim {
			return 0, fmt.Errorf("chunk %s has %d dimensions, batch has %d: %w",
				ch.ID, len(ch.Embedding), dim, store.ErrDimensionMismatch)
		}
	}
	return dim, nil
}

// clearCollection upserts the persona row and deletes its chunks, locking
// the row so concurrent writers serialize per persona.
func clearCollection(ctx context.Context, tx pgx.Tx, persona string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO personas (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		persona,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure persona %s: %w", persona, err)
	}
	_, err = tx.Exec(ctx, `SELECT 1 FROM personas WHERE name = $1 FOR UPDATE`, persona)
	if err != nil {
		return fmt.Errorf("failed to lock persona %s: %w", persona, err)
	}
	_, err = tx.Exec(ctx, `DELETE FROM persona_chunks WHERE persona = $1`, persona)
	if err != nil {
		return fmt.Errorf("failed to clear chunks for %s: %w", persona, err)
	}
	_, err = tx.Exec(ctx, `UPDATE personas SET dimension = NULL WHERE name = $1`, persona)
	if err != nil {
		return fmt.Errorf("failed to reset dimension for %s: %w", persona, err)
	}
	return nil
}

// checkDimension compares the batch dimensionality against the
// collection's recorded one, establishing it on first write.
func checkDimension(ctx context.Context, tx pgx.Tx, persona string, dim int) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO personas (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
		persona,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure persona %s: %w", persona, err)
	}

	var stored *int
	err = tx.QueryRow(ctx,
		`SELECT dimension FROM personas WHERE name = $1 FOR UPDATE`, persona,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to read collection dimension: %w", err)
	}
	if stored != nil && *stored != dim {
		return fmt.Errorf("batch has %d dimensions, collection has %d: %w",
			dim, *stored, store.ErrDimensionMismatch)
	}
	if stored == nil {
		_, err = tx.Exec(ctx, `UPDATE personas SET dimension = $2 WHERE name = $1`, persona, dim)
		if err != nil {
			return fmt.Errorf("failed to record collection dimension: %w", err)
		}
	}
	return nil
}

// insertChunks batch-inserts chunks within the transaction.
func insertChunks(ctx context.Context, tx pgx.Tx, chunks []store.Chunk) error {
	batch := &pgx.Batch{}
	for _, ch := range chunks {
		batch.Queue(
			`INSERT INTO persona_chunks (id, persona, chunk_index, content, source_path, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			ch.ID, ch.Persona, ch.Index, ch.Text, ch.SourcePath, pgvector.NewVector(ch.Embedding),
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	return br.Close()
}
