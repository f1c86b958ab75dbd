package ingest

// Default chunking parameters.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 0
)

// ChunkerOption configures a WindowChunker.
type ChunkerOption func(*WindowChunker)

// WithChunkSize sets the window size in runes. Values below 1 are ignored.
func WithChunkSize(size int) ChunkerOption {
	return func(c *WindowChunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets how many runes consecutive windows share. Negative
// values and values at or above the chunk size are ignored.
func WithOverlap(overlap int) ChunkerOption {
	return func(c *WindowChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WindowChunker splits text into fixed-size windows of runes. Splitting is
// lossless when overlap is zero: concatenating the chunks reproduces the
// input exactly. Window boundaries ignore word and sentence structure.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a chunker with a 1000-rune window and no overlap.
func NewWindowChunker(opts ...ChunkerOption) *WindowChunker {
	c := &WindowChunker{size: DefaultChunkSize, overlap: DefaultOverlap}
	for _, o := range opts {
		o(c)
	}
	if c.overlap >= c.size {
		c.overlap = 0
	}
	return c
}

// Split cuts text into windows. Empty input produces no chunks; input
// shorter than the window produces exactly one.
func (c *WindowChunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
