package ingest

import (
	"context"
	"log/slog"
	"strings"

	askdocs "github.com/askdocs-ai/askdocs"
)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRegistry replaces the default extractor registry.
func WithRegistry(r *Registry) PipelineOption {
	return func(p *Pipeline) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *WindowChunker) PipelineOption {
	return func(p *Pipeline) {
		if c != nil {
			p.chunker = c
		}
	}
}

// Pipeline runs extraction and chunking over a batch of raw documents.
// Per-document failures are logged and skipped; they never abort the batch.
type Pipeline struct {
	registry *Registry
	chunker  *WindowChunker
	logger   *slog.Logger
}

// NewPipeline creates a pipeline with the built-in registry and the
// default chunker.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		registry: NewRegistry(),
		chunker:  NewWindowChunker(),
		logger:   nopLogger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Registry exposes the pipeline's extractor registry so callers can add
// format support after construction.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Extract converts raw documents to normalized text. Unsupported formats,
// extractor failures, and documents whose extracted text is empty or
// whitespace-only are all skipped with a log entry. Input order is
// preserved in the output.
func (p *Pipeline) Extract(ctx context.Context, docs []askdocs.Document) []askdocs.ExtractedDoc {
	out := make([]askdocs.ExtractedDoc, 0, len(docs))
	for _, doc := range docs {
		text, err := p.extractOne(doc)
		if err != nil {
			p.logger.WarnContext(ctx, "skipping document",
				"id", doc.ID, "name", doc.Name, "error", err)
			continue
		}
		out = append(out, askdocs.ExtractedDoc{
			SourceID: doc.ID,
			Name:     doc.Name,
			Text:     text,
		})
	}
	return out
}

func (p *Pipeline) extractOne(doc askdocs.Document) (string, error) {
	ext, ok := p.registry.Lookup(ContentType(doc.MimeType))
	if !ok {
		return "", &askdocs.ExtractionError{
			SourceID: doc.ID,
			Name:     doc.Name,
			MimeType: doc.MimeType,
			Err:      ErrUnsupportedType,
		}
	}

	text, err := ext.Extract(doc.Raw)
	if err != nil {
		return "", &askdocs.ExtractionError{
			SourceID: doc.ID,
			Name:     doc.Name,
			MimeType: doc.MimeType,
			Err:      err,
		}
	}

	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return "", &askdocs.ExtractionError{
			SourceID: doc.ID,
			Name:     doc.Name,
			MimeType: doc.MimeType,
			Err:      ErrNoText,
		}
	}
	return text, nil
}

// Split chunks every extracted document, assigning per-document chunk
// indexes starting at zero.
func (p *Pipeline) Split(docs []askdocs.ExtractedDoc) []askdocs.Chunk {
	var chunks []askdocs.Chunk
	for _, doc := range docs {
		for i, text := range p.chunker.Split(doc.Text) {
			chunks = append(chunks, askdocs.Chunk{
				SourceID:   doc.SourceID,
				SourceName: doc.Name,
				Index:      i,
				Text:       text,
			})
		}
	}
	return chunks
}

// nopLogger is a logger that discards all output. Used when WithLogger is
// not set.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
