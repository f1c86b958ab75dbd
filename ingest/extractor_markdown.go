package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor parses Markdown and emits the plain text content,
// dropping formatting but keeping block boundaries as newlines.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(data []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(data))

	var out strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				out.Write(node.Segment.Value(data))
				if node.SoftLineBreak() || node.HardLineBreak() {
					out.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				out.Write(node.Value)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					out.Write(seg.Value(data))
				}
				return ast.WalkSkipChildren, nil
			}
			out.WriteByte('\n')
		case *ast.AutoLink:
			if entering {
				out.Write(node.URL(data))
			}
		default:
			// Close out blocks with a newline so paragraphs, headings, and
			// list items stay separated in the plain text.
			if !entering && n.Type() == ast.TypeBlock {
				out.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(collapseBlank(out.String())), nil
}

func (e *MarkdownExtractor) Supports() []ContentType {
	return []ContentType{TypeMarkdown}
}
