package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GoogleDocExtractor reads the structured JSON body returned by the Docs
// API and concatenates every paragraph text run in document order.
// Non-paragraph structural elements (tables of contents, section breaks)
// are skipped.
type GoogleDocExtractor struct{}

type gdocDocument struct {
	Body struct {
		Content []gdocStructuralElement `json:"content"`
	} `json:"body"`
}

type gdocStructuralElement struct {
	Paragraph *struct {
		Elements []struct {
			TextRun *struct {
				Content string `json:"content"`
			} `json:"textRun"`
		} `json:"elements"`
	} `json:"paragraph"`
}

func (e *GoogleDocExtractor) Extract(data []byte) (string, error) {
	var doc gdocDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse document body: %w", err)
	}

	var out strings.Builder
	for _, el := range doc.Body.Content {
		if el.Paragraph == nil {
			continue
		}
		for _, pe := range el.Paragraph.Elements {
			if pe.TextRun != nil {
				out.WriteString(pe.TextRun.Content)
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func (e *GoogleDocExtractor) Supports() []ContentType {
	return []ContentType{TypeGoogleDoc}
}
