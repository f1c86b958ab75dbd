// Package pdf provides a PDF text extractor for the ingest pipeline.
//
// It uses ledongthuc/pdf (BSD-3, pure Go, no CGO). It lives in its own
// subpackage so the dependency is only pulled in by users who need PDF
// support; register it with the pipeline's registry to enable it.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/askdocs-ai/askdocs/ingest"
)

var _ ingest.Extractor = (*Extractor)(nil)

// Extractor extracts plain text from PDF documents page by page.
// Unreadable pages are skipped rather than failing the document.
type Extractor struct{}

// NewExtractor creates a PDF extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty pdf content")
	}

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, strings.TrimSpace(pageText))
	}

	return joinPages(pages), nil
}

// joinPages emits one line per page. A textless page between two text
// pages keeps its slot, leaving a blank line at the page boundary.
func joinPages(pages []string) string {
	return strings.TrimSpace(strings.Join(pages, "\n"))
}

func (e *Extractor) Supports() []ingest.ContentType {
	return []ingest.ContentType{ingest.TypePDF}
}
