package askdocs

import "context"

// fakeProvider returns canned chat responses and records requests.
type fakeProvider struct {
	name     string
	respond  func(req ChatRequest) (ChatResponse, error)
	requests []ChatRequest
}

func (f *fakeProvider) Chat(_ context.Context, req ChatRequest) (ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.respond != nil {
		return f.respond(req)
	}
	return ChatResponse{Content: "ok"}, nil
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

// fakeEmbedding maps known texts to fixed vectors and everything else to
// a zero-ish default, keeping retrieval tests deterministic.
type fakeEmbedding struct {
	dims    int
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		v := make([]float32, f.Dimensions())
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedding) Dimensions() int {
	if f.dims == 0 {
		return 4
	}
	return f.dims
}

func (f *fakeEmbedding) Name() string { return "fake-embed" }

func chunksFromTexts(texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{SourceID: "doc-1", SourceName: "doc", Index: i, Text: t}
	}
	return chunks
}
