package askdocs

import "context"

// Provider abstracts the generation backend.
type Provider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
	// Name returns the provider name (e.g. "gemini").
	Name() string
}

// EmbeddingProvider abstracts text embedding.
//
// Embed must be deterministic for identical input within a provider
// version; callers must not persist vectors across provider upgrades
// without re-embedding.
type EmbeddingProvider interface {
	// Embed returns one embedding vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding vector size.
	Dimensions() int
	// Name returns the provider name.
	Name() string
}
