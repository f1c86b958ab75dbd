// Package app wires the ingest pipeline, vector index, answerer, and
// corpus store into per-session operations, and owns the translation of
// every internal failure into user-facing text.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	askdocs "github.com/askdocs-ai/askdocs"
	"github.com/askdocs-ai/askdocs/ingest"
)

// Fetcher retrieves one document from the document store using the
// caller's access token.
type Fetcher interface {
	Fetch(ctx context.Context, token, fileID string) (askdocs.Document, error)
}

// ReauthenticateMessage is returned for any authorization failure at the
// document-store boundary.
const ReauthenticateMessage = "Your document store session has expired or lacks access. Please log out and log in again."

// Config holds the service's tunables.
type Config struct {
	TopK            int
	MinAnswerChars  int
	FallbackMarkers []string
	EmbedBatchSize  int
	// Timeout bounds each build and query operation end to end.
	// Zero means no bound.
	Timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the corpus store used to persist each session's corpus.
// Without a store, corpora live only in memory.
func WithStore(store askdocs.CorpusStore) Option {
	return func(s *Service) { s.store = store }
}

// WithIndexBuildHook registers a callback invoked after every successful
// index build.
func WithIndexBuildHook(fn func(ctx context.Context)) Option {
	return func(s *Service) { s.onIndexBuilt = fn }
}

// Service implements the session-scoped operations behind the HTTP
// surface. All methods are safe for concurrent use; state is per session.
type Service struct {
	fetcher   Fetcher
	provider  askdocs.Provider
	embedding askdocs.EmbeddingProvider
	pipeline  *ingest.Pipeline
	answerer  *askdocs.Answerer
	store     askdocs.CorpusStore
	sessions  *SessionManager
	logger    *slog.Logger
	cfg       Config

	onIndexBuilt func(ctx context.Context)
}

// NewService creates a Service. provider may be nil when no generation
// credentials are configured; queries then return the not-configured text.
func NewService(fetcher Fetcher, provider askdocs.Provider, embedding askdocs.EmbeddingProvider, pipeline *ingest.Pipeline, cfg Config, opts ...Option) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = askdocs.DefaultTopK
	}
	if cfg.MinAnswerChars <= 0 {
		cfg.MinAnswerChars = askdocs.DefaultMinAnswerChars
	}
	if len(cfg.FallbackMarkers) == 0 {
		cfg.FallbackMarkers = askdocs.DefaultFallbackMarkers
	}

	var answerer *askdocs.Answerer
	if provider != nil {
		answerer = askdocs.NewAnswerer(provider,
			askdocs.WithTopK(cfg.TopK),
			askdocs.WithMinAnswerChars(cfg.MinAnswerChars),
			askdocs.WithFallbackMarkers(cfg.FallbackMarkers),
		)
	} else {
		answerer = askdocs.NewAnswerer(nil)
	}

	s := &Service{
		fetcher:   fetcher,
		provider:  provider,
		embedding: embedding,
		pipeline:  pipeline,
		answerer:  answerer,
		sessions:  NewSessionManager(),
		logger:    slog.Default(),
		cfg:       cfg,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// BuildIndexFromSelection fetches the selected documents, runs extraction
// and chunking, embeds, and swaps the session's index. Per-document fetch
// and extraction failures skip and log; authorization failures abort the
// whole build. Any failure leaves the previous index serving. An empty
// selection clears the session's index and corpus. Builds for one session
// run one at a time; other sessions are unaffected.
func (s *Service) BuildIndexFromSelection(ctx context.Context, sessionID, token string, docIDs []string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	session := s.sessions.Get(sessionID)
	session.buildMu.Lock()
	defer session.buildMu.Unlock()
	session.SetSelection(askdocs.Selection{DocumentIDs: docIDs})

	if len(docIDs) == 0 {
		session.SetIndex(nil)
		s.deleteCorpus(ctx, sessionID)
		return nil
	}

	// No embedding provider means no build can succeed. The selection is
	// already recorded; keep the index empty instead of dereferencing nil.
	if s.embedding == nil {
		session.SetIndex(nil)
		return askdocs.ErrNotConfigured
	}

	docs := make([]askdocs.Document, 0, len(docIDs))
	for _, id := range docIDs {
		doc, err := s.fetcher.Fetch(ctx, token, id)
		if err != nil {
			var authErr *askdocs.AuthError
			if errors.As(err, &authErr) {
				return err
			}
			s.logger.WarnContext(ctx, "skipping unfetchable document",
				"session", sessionID, "id", id, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	extracted := s.pipeline.Extract(ctx, docs)
	chunks := s.pipeline.Split(extracted)

	var buildOpts []askdocs.IndexOption
	if s.cfg.EmbedBatchSize > 0 {
		buildOpts = append(buildOpts, askdocs.WithEmbedBatchSize(s.cfg.EmbedBatchSize))
	}
	idx, err := askdocs.BuildIndex(ctx, chunks, s.embedding, buildOpts...)
	if err != nil {
		return err
	}

	session.SetIndex(idx)
	if s.onIndexBuilt != nil {
		s.onIndexBuilt(ctx)
	}
	s.logger.InfoContext(ctx, "index built",
		"session", sessionID,
		"documents", len(extracted),
		"chunks", idx.Len())

	// Persistence is best effort; the in-memory index already serves.
	if s.store != nil {
		if err := s.store.ReplaceCorpus(ctx, sessionID, extracted, chunks); err != nil {
			s.logger.WarnContext(ctx, "corpus persistence failed",
				"session", sessionID, "error", err)
		}
	}
	return nil
}

// RestoreIndex rebuilds a session's index from the persisted corpus,
// re-embedding the stored chunks. It is a no-op when nothing is stored.
func (s *Service) RestoreIndex(ctx context.Context, sessionID string) error {
	if s.store == nil {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	session := s.sessions.Get(sessionID)
	session.buildMu.Lock()
	defer session.buildMu.Unlock()

	chunks, err := s.store.LoadChunks(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}
	if s.embedding == nil {
		return askdocs.ErrNotConfigured
	}

	idx, err := askdocs.BuildIndex(ctx, chunks, s.embedding)
	if err != nil {
		return err
	}
	session.SetIndex(idx)
	return nil
}

// AnswerQuery answers one query for a session. It never returns an error:
// every failure becomes user-facing text.
func (s *Service) AnswerQuery(ctx context.Context, sessionID, query string) string {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	session := s.sessions.Get(sessionID)
	idx := session.Index()
	sel := session.Selection()

	// A selection without an index means the last build failed; say so
	// rather than silently answering from general knowledge.
	if s.provider != nil && idx == nil && len(sel.DocumentIDs) > 0 {
		return fmt.Sprintf("Documents are selected (%d docs) but the index is not ready. Please re-submit your selection.", len(sel.DocumentIDs))
	}

	answer, err := s.answerer.Answer(ctx, idx, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "query failed",
			"session", sessionID, "error", err)
		var authErr *askdocs.AuthError
		if errors.As(err, &authErr) {
			return ReauthenticateMessage
		}
		return "An error occurred: " + err.Error()
	}
	return answer
}

// Logout clears the session's selection, index, and persisted corpus.
func (s *Service) Logout(ctx context.Context, sessionID string) {
	s.sessions.Get(sessionID).Clear()
	s.sessions.Delete(sessionID)
	s.deleteCorpus(ctx, sessionID)
	s.logger.InfoContext(ctx, "session cleared", "session", sessionID)
}

func (s *Service) deleteCorpus(ctx context.Context, sessionID string) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteCorpus(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "corpus delete failed",
			"session", sessionID, "error", err)
	}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}
