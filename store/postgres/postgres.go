// Package postgres implements askdocs.CorpusStore using PostgreSQL.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool; Close here is a
// no-op so the store contract stays uniform across backends.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	askdocs "github.com/askdocs-ai/askdocs"
)

// Store persists per-session corpora in PostgreSQL. Embeddings are never
// stored; a rebuilt index always re-embeds.
type Store struct {
	pool *pgxpool.Pool
}

var _ askdocs.CorpusStore = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates all required tables.
func (s *Store) Init(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			session_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (session_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			seq BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			document_name TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id)`,
	}
	for _, ddl := range tables {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// ReplaceCorpus atomically swaps the session's stored corpus. A failure
// rolls back and leaves the previous corpus intact.
func (s *Store) ReplaceCorpus(ctx context.Context, sessionID string, docs []askdocs.ExtractedDoc, chunks []askdocs.Chunk) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	now := time.Now().Unix()
	for _, doc := range docs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (session_id, id, name, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			sessionID, doc.SourceID, doc.Name, doc.Text, now,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.SourceID, err)
		}
	}

	for _, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chunks (session_id, document_id, document_name, chunk_index, content) VALUES ($1, $2, $3, $4, $5)`,
			sessionID, c.SourceID, c.SourceName, c.Index, c.Text,
		); err != nil {
			return fmt.Errorf("insert chunk %s/%d: %w", c.SourceID, c.Index, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadChunks returns the session's chunks in insertion order.
func (s *Store) LoadChunks(ctx context.Context, sessionID string) ([]askdocs.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, document_name, chunk_index, content
		 FROM chunks WHERE session_id = $1 ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []askdocs.Chunk
	for rows.Next() {
		var c askdocs.Chunk
		if err := rows.Scan(&c.SourceID, &c.SourceName, &c.Index, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// DeleteCorpus removes everything stored for a session.
func (s *Store) DeleteCorpus(ctx context.Context, sessionID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return tx.Commit(ctx)
}

// Close is a no-op; the pool is owned by the caller.
func (s *Store) Close() error { return nil }
