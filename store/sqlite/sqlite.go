// Package sqlite implements askdocs.CorpusStore using pure-Go SQLite.
// Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	askdocs "github.com/askdocs-ai/askdocs"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. If not set, no logs
// are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store persists per-session corpora in a local SQLite file. Embeddings
// are never stored; a rebuilt index always re-embeds.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ askdocs.CorpusStore = (*Store)(nil)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// New creates a Store using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so that
// all goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Init creates all required tables.
func (s *Store) Init(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			session_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid_order INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			document_name TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id)`,
	}

	for _, ddl := range tables {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// ReplaceCorpus atomically swaps the session's stored corpus. A failure
// rolls back and leaves the previous corpus intact.
func (s *Store) ReplaceCorpus(ctx context.Context, sessionID string, docs []askdocs.ExtractedDoc, chunks []askdocs.Chunk) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	now := time.Now().Unix()
	for _, doc := range docs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (session_id, id, name, content, created_at) VALUES (?, ?, ?, ?, ?)`,
			sessionID, doc.SourceID, doc.Name, doc.Text, now,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.SourceID, err)
		}
	}

	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (session_id, document_id, document_name, chunk_index, content) VALUES (?, ?, ?, ?, ?)`,
			sessionID, c.SourceID, c.SourceName, c.Index, c.Text,
		); err != nil {
			return fmt.Errorf("insert chunk %s/%d: %w", c.SourceID, c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("sqlite: corpus replaced",
		"session", sessionID,
		"documents", len(docs),
		"chunks", len(chunks),
		"duration", time.Since(start))
	return nil
}

// LoadChunks returns the session's chunks in insertion order.
func (s *Store) LoadChunks(ctx context.Context, sessionID string) ([]askdocs.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, document_name, chunk_index, content
		 FROM chunks WHERE session_id = ? ORDER BY rowid_order`,
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
