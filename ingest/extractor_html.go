package ingest

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// documentURL is a placeholder base for resolving relative links; stored
// documents have no origin URL.
var documentURL = &url.URL{Scheme: "http", Host: "localhost"}

// HTMLExtractor extracts the readable article text from an HTML page.
// Readability handles boilerplate removal; when it finds no article the
// extractor falls back to stripping tags.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(data []byte) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(data), documentURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.TextContent), nil
	}
	return stripTags(string(data)), nil
}

func (e *HTMLExtractor) Supports() []ContentType {
	return []ContentType{TypeHTML}
}

// stripTags removes markup and drops script and style content. Block-level
// closings become newlines so paragraph boundaries survive.
func stripTags(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inTag := false
	skipDepth := 0
	var tag strings.Builder
	collecting := false

	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		i += size

		switch {
		case r == '<':
			inTag = true
			collecting = true
			tag.Reset()
		case inTag:
			if collecting && (unicode.IsSpace(r) || r == '>' || (r == '/' && tag.Len() > 0)) {
				collecting = false
				switch strings.ToLower(tag.String()) {
				case "script", "style":
					skipDepth++
				case "/script", "/style":
					if skipDepth > 0 {
						skipDepth--
					}
				case "/p", "/div", "/li", "/h1", "/h2", "/h3", "/h4", "/h5", "/h6", "br", "br/":
					out.WriteByte('\n')
				}
			} else if collecting {
				tag.WriteRune(r)
			}
			if r == '>' {
				inTag = false
			}
		case skipDepth == 0:
			out.WriteRune(r)
		}
	}

	return collapseBlank(out.String())
}

// collapseBlank squeezes runs of blank lines down to one and trims each
// line's surrounding whitespace.
func collapseBlank(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
