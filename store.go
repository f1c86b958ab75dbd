package askdocs

import "context"

// CorpusStore persists each session's extracted corpus so an index can be
// rebuilt without re-fetching from the document store. Vectors are not
// persisted: embeddings are only stable within a provider version, so a
// rebuilt index always re-embeds.
type CorpusStore interface {
	// ReplaceCorpus atomically replaces the session's stored corpus.
	// On failure the previous corpus is preserved unchanged.
	ReplaceCorpus(ctx context.Context, sessionID string, docs []ExtractedDoc, chunks []Chunk) error
	// LoadChunks returns the session's stored chunks in insertion order.
	LoadChunks(ctx context.Context, sessionID string) ([]Chunk, error)
	// DeleteCorpus removes the session's corpus (logout).
	DeleteCorpus(ctx context.Context, sessionID string) error

	Init(ctx context.Context) error
	Close() error
}
