package askdocs

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// indexedVector pairs a stored embedding with its chunk. It never leaves
// the index.
type indexedVector struct {
	vec   []float32
	chunk Chunk
}

// Index is an immutable nearest-neighbor structure over chunk embeddings.
// Similarity is cosine, for both build and query. Once built an Index is
// never mutated, so concurrent Search calls are safe without locking;
// replacing an index means building a new one and swapping the pointer.
type Index struct {
	vectors   []indexedVector
	embedding EmbeddingProvider
	builtAt   int64
}

// IndexOption configures BuildIndex.
type IndexOption func(*indexConfig)

type indexConfig struct {
	batchSize int
}

// WithEmbedBatchSize sets the number of chunks per Embed call (default 64).
func WithEmbedBatchSize(n int) IndexOption {
	return func(c *indexConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// BuildIndex embeds chunks in batches and returns a read-only Index.
// An empty chunk set fails with IndexBuildError wrapping ErrEmptyCorpus;
// an embedding failure fails the whole build with IndexBuildError wrapping
// an EmbeddingError. There is no partial result in either case.
func BuildIndex(ctx context.Context, chunks []Chunk, emb EmbeddingProvider, opts ...IndexOption) (*Index, error) {
	if len(chunks) == 0 {
		return nil, &IndexBuildError{Err: ErrEmptyCorpus}
	}

	cfg := indexConfig{batchSize: 64}
	for _, o := range opts {
		o(&cfg)
	}

	vectors := make([]indexedVector, 0, len(chunks))

	for i := 0; i < len(chunks); i += cfg.batchSize {
		end := i + cfg.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]
		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		embs, err := emb.Embed(ctx, texts)
		if err != nil {
			return nil, &IndexBuildError{Err: &EmbeddingError{Provider: emb.Name(), Err: err}}
		}
		if len(embs) != len(batch) {
			return nil, &IndexBuildError{Err: &EmbeddingError{
				Provider: emb.Name(),
				Err:      fmt.Errorf("got %d embeddings for %d texts", len(embs), len(batch)),
			}}
		}

		for j, c := range batch {
			vectors = append(vectors, indexedVector{vec: embs[j], chunk: c})
		}
	}

	return &Index{vectors: vectors, embedding: emb, builtAt: NowUnix()}, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int { return len(idx.vectors) }

// BuiltAt returns the build time as Unix seconds.
func (idx *Index) BuiltAt() int64 { return idx.builtAt }

// Search embeds the query and returns up to k chunks ranked by cosine
// similarity, descending. Ranking is deterministic: ties keep insertion
// order. Search never mutates the index.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}

	embs, err := idx.embedding.Embed(ctx, []string{query})
	if err != nil {
		return nil, &EmbeddingError{Provider: idx.embedding.Name(), Err: err}
	}
	if len(embs) == 0 {
		return nil, &EmbeddingError{Provider: idx.embedding.Name(), Err: fmt.Errorf("no embedding returned")}
	}
	q := embs[0]

	results := make([]RetrievalResult, 0, len(idx.vectors))
	for _, iv := range idx.vectors {
		results = append(results, RetrievalResult{
			Chunk: iv.chunk,
			Score: cosineSimilarity(q, iv.vec),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}
