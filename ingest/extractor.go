// Package ingest turns raw documents into normalized text chunks ready for
// embedding. It covers format detection, per-format text extraction, and
// fixed-window chunking.
package ingest

import (
	"errors"

	"golang.org/x/text/unicode/norm"
)

// Sentinel extraction failures.
var (
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrNoText          = errors.New("document contains no extractable text")
)

// ContentType identifies a document format, using the MIME types the
// document store reports.
type ContentType string

const (
	TypePlainText    ContentType = "text/plain"
	TypeHTML         ContentType = "text/html"
	TypeMarkdown     ContentType = "text/markdown"
	TypePDF          ContentType = "application/pdf"
	TypeGoogleDoc    ContentType = "application/vnd.google-apps.document"
	TypeGoogleSlides ContentType = "application/vnd.google-apps.presentation"
	TypePPTX         ContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	TypeMSPowerPoint ContentType = "application/vnd.ms-powerpoint"
)

// Extractor converts one document format into plain text.
type Extractor interface {
	// Extract returns the document's text content. Structure beyond what
	// the format demands (slide markers, paragraph breaks) is preserved as
	// plain text.
	Extract(data []byte) (string, error)
	// Supports lists the content types this extractor handles.
	Supports() []ContentType
}

// Registry maps content types to extractors. Lookup is exact on the MIME
// type; parameters must be stripped by the caller.
type Registry struct {
	byType map[ContentType]Extractor
}

// NewRegistry returns a registry preloaded with the built-in extractors
// for plain text, HTML, Markdown, structured documents, and slide decks.
// PDF support lives in the pdf subpackage and is registered by the caller.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[ContentType]Extractor)}
	r.Register(&PlainTextExtractor{})
	r.Register(&HTMLExtractor{})
	r.Register(&MarkdownExtractor{})
	r.Register(&GoogleDocExtractor{})
	r.Register(&PPTXExtractor{})
	return r
}

// Register adds an extractor for every content type it supports,
// replacing any previous registration for those types.
func (r *Registry) Register(e Extractor) {
	for _, ct := range e.Supports() {
		r.byType[ct] = e
	}
}

// Lookup returns the extractor for a content type, or false when the
// format is unsupported.
func (r *Registry) Lookup(ct ContentType) (Extractor, bool) {
	e, ok := r.byType[ct]
	return e, ok
}

// Normalize applies Unicode NFC normalization so that chunking and
// embedding see a canonical byte representation.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// PlainTextExtractor passes text documents through unchanged. The
// pipeline drops documents that are whitespace-only after normalization.
type PlainTextExtractor struct{}

func (e *PlainTextExtractor) Extract(data []byte) (string, error) {
	return string(data), nil
}

func (e *PlainTextExtractor) Supports() []ContentType {
	return []ContentType{TypePlainText}
}
