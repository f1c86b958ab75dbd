package app

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	askdocs "github.com/askdocs-ai/askdocs"
	"github.com/askdocs-ai/askdocs/ingest"
)

// fakeFetcher serves documents from a map and can be forced to fail.
type fakeFetcher struct {
	docs map[string]askdocs.Document
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, fileID string) (askdocs.Document, error) {
	if f.err != nil {
		return askdocs.Document{}, f.err
	}
	doc, ok := f.docs[fileID]
	if !ok {
		return askdocs.Document{}, &askdocs.ErrHTTP{Status: 404, Body: "not found"}
	}
	return doc, nil
}

// fakeProvider echoes the stuffed context back so tests can see what was
// retrieved, or returns a canned response.
type fakeProvider struct {
	respond func(req askdocs.ChatRequest) (askdocs.ChatResponse, error)
}

func (f *fakeProvider) Chat(_ context.Context, req askdocs.ChatRequest) (askdocs.ChatResponse, error) {
	if f.respond != nil {
		return f.respond(req)
	}
	return askdocs.ChatResponse{Content: "a sufficiently long answer that clears the confidence floor easily"}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

// hashEmbedding derives a deterministic vector from the text, so repeated
// builds produce identical indexes and identical ranking.
type hashEmbedding struct {
	calls int
	fail  bool
}

func (h *hashEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	h.calls++
	if h.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, h.Dimensions())
		for d := range vec {
			hsh := fnv.New32a()
			fmt.Fprintf(hsh, "%d:%s", d, t)
			vec[d] = float32(hsh.Sum32()%1000) / 1000
		}
		out[i] = vec
	}
	return out, nil
}

func (h *hashEmbedding) Dimensions() int { return 8 }
func (h *hashEmbedding) Name() string    { return "hash" }

func buildDeck(t *testing.T, slideXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(slideXML)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testDocuments(t *testing.T) map[string]askdocs.Document {
	t.Helper()
	deck := buildDeck(t, `<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>quarterly revenue targets</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)

	return map[string]askdocs.Document{
		"txt-1": {
			ID: "txt-1", Name: "notes.txt", MimeType: "text/plain",
			Raw: []byte("alpha document content"),
		},
		"gdoc-1": {
			ID: "gdoc-1", Name: "Plan", MimeType: "application/vnd.google-apps.document",
			Raw: []byte(`{"body": {"content": [{"paragraph": {"elements": [{"textRun": {"content": "beta planning details"}}]}}]}}`),
		},
		"deck-1": {
			ID: "deck-1", Name: "Deck", MimeType: string(ingest.TypePPTX),
			Raw: deck,
		},
	}
}

func newTestService(t *testing.T, fetcher *fakeFetcher, provider askdocs.Provider, emb askdocs.EmbeddingProvider) *Service {
	t.Helper()
	return NewService(fetcher, provider, emb, ingest.NewPipeline(), Config{})
}

func TestBuildAndQueryEndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	emb := &hashEmbedding{}

	var lastPrompt string
	provider := &fakeProvider{respond: func(req askdocs.ChatRequest) (askdocs.ChatResponse, error) {
		lastPrompt = req.Messages[0].Content
		return askdocs.ChatResponse{Content: "The alpha document describes the content in sufficient detail for this test."}, nil
	}}

	svc := newTestService(t, fetcher, provider, emb)
	ctx := context.Background()

	err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1", "gdoc-1", "deck-1"})
	if err != nil {
		t.Fatalf("BuildIndexFromSelection: %v", err)
	}

	idx := svc.sessions.Get("sess").Index()
	if idx == nil || idx.Len() != 3 {
		t.Fatalf("index = %v, want 3 chunks (one per document)", idx)
	}

	answer := svc.AnswerQuery(ctx, "sess", "alpha document content")
	if !strings.Contains(answer, "alpha document") {
		t.Fatalf("answer = %q", answer)
	}
	// The stuffed prompt contains the best-matching chunk, which for an
	// exact-text query is that document's own text.
	if !strings.Contains(lastPrompt, "alpha document content") {
		t.Fatalf("prompt missing retrieved chunk: %q", lastPrompt)
	}
	// Deck and gdoc text made it through their extractors into the index.
	for _, want := range []string{"quarterly revenue targets", "beta planning details"} {
		if !strings.Contains(lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	emb := &hashEmbedding{}
	svc := newTestService(t, fetcher, &fakeProvider{}, emb)
	ctx := context.Background()

	ids := []string{"txt-1", "gdoc-1", "deck-1"}
	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", ids); err != nil {
		t.Fatalf("first build: %v", err)
	}
	first, err := svc.sessions.Get("sess").Index().Search(ctx, "beta planning details", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", ids); err != nil {
		t.Fatalf("second build: %v", err)
	}
	second, err := svc.sessions.Get("sess").Index().Search(ctx, "beta planning details", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Chunk.Text != second[i].Chunk.Text {
			t.Fatalf("rank %d differs: %q vs %q", i, first[i].Chunk.Text, second[i].Chunk.Text)
		}
	}
	if first[0].Chunk.SourceID != "gdoc-1" {
		t.Fatalf("top result = %q, want the exact-match document", first[0].Chunk.SourceID)
	}
}

func TestBuildSkipsUnfetchableAndUnsupported(t *testing.T) {
	docs := testDocuments(t)
	docs["img-1"] = askdocs.Document{ID: "img-1", Name: "pic.png", MimeType: "image/png", Raw: []byte{1}}
	fetcher := &fakeFetcher{docs: docs}
	svc := newTestService(t, fetcher, &fakeProvider{}, &hashEmbedding{})

	err := svc.BuildIndexFromSelection(context.Background(), "sess", "tok",
		[]string{"txt-1", "missing-id", "img-1"})
	if err != nil {
		t.Fatalf("BuildIndexFromSelection: %v", err)
	}
	idx := svc.sessions.Get("sess").Index()
	if idx == nil || idx.Len() != 1 {
		t.Fatalf("index should contain only the usable document, got %v", idx)
	}
}

func TestBuildAuthFailureAborts(t *testing.T) {
	fetcher := &fakeFetcher{err: &askdocs.AuthError{Kind: askdocs.AuthExpired}}
	svc := newTestService(t, fetcher, &fakeProvider{}, &hashEmbedding{})

	err := svc.BuildIndexFromSelection(context.Background(), "sess", "tok", []string{"txt-1"})
	var authErr *askdocs.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
}

func TestBuildFailureLeavesOldIndex(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	emb := &hashEmbedding{}
	svc := newTestService(t, fetcher, &fakeProvider{}, emb)
	ctx := context.Background()

	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1"}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	old := svc.sessions.Get("sess").Index()

	emb.fail = true
	err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"gdoc-1"})
	if err == nil {
		t.Fatal("expected build failure")
	}
	if svc.sessions.Get("sess").Index() != old {
		t.Fatal("failed build must not replace the serving index")
	}
}

func TestEmptySelectionClearsIndex(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	svc := newTestService(t, fetcher, &fakeProvider{}, &hashEmbedding{})
	ctx := context.Background()

	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1"}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if svc.sessions.Get("sess").Index() != nil {
		t.Fatal("empty selection should clear the index")
	}
}

func TestQuerySelectedButIndexNotReady(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	emb := &hashEmbedding{fail: true}
	svc := newTestService(t, fetcher, &fakeProvider{}, emb)
	ctx := context.Background()

	// Build fails, selection sticks.
	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1"}); err == nil {
		t.Fatal("expected build failure")
	}

	answer := svc.AnswerQuery(ctx, "sess", "anything")
	if !strings.Contains(answer, "not ready") {
		t.Fatalf("answer = %q", answer)
	}
}

func TestBuildNoEmbeddingProviderReturnsNotConfigured(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	svc := newTestService(t, fetcher, nil, nil)
	ctx := context.Background()

	err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1"})
	if !errors.Is(err, askdocs.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}

	session := svc.sessions.Get("sess")
	if session.Index() != nil {
		t.Fatal("no index should exist without an embedding provider")
	}
	if len(session.Selection().DocumentIDs) != 1 {
		t.Fatal("selection should still be recorded")
	}
	if answer := svc.AnswerQuery(ctx, "sess", "anything"); answer != askdocs.NotConfiguredMessage {
		t.Fatalf("answer = %q", answer)
	}
}

// slowFetcher flags overlapping Fetch calls across goroutines.
type slowFetcher struct {
	inner   *fakeFetcher
	current atomic.Int32
	overlap atomic.Bool
}

func (f *slowFetcher) Fetch(ctx context.Context, token, fileID string) (askdocs.Document, error) {
	if f.current.Add(1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	f.current.Add(-1)
	return f.inner.Fetch(ctx, token, fileID)
}

func TestConcurrentBuildsSerializePerSession(t *testing.T) {
	fetcher := &slowFetcher{inner: &fakeFetcher{docs: testDocuments(t)}}
	svc := NewService(fetcher, &fakeProvider{}, &hashEmbedding{}, ingest.NewPipeline(), Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1", "gdoc-1"}); err != nil {
				t.Errorf("build: %v", err)
			}
		}()
	}
	wg.Wait()

	if fetcher.overlap.Load() {
		t.Fatal("builds for one session must not overlap")
	}
	idx := svc.sessions.Get("sess").Index()
	if idx == nil || idx.Len() != 2 {
		t.Fatalf("index = %v, want 2 chunks", idx)
	}
}

func TestQueryNoProviderReturnsNotConfigured(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	svc := newTestService(t, fetcher, nil, &hashEmbedding{})

	answer := svc.AnswerQuery(context.Background(), "sess", "anything")
	if answer != askdocs.NotConfiguredMessage {
		t.Fatalf("answer = %q", answer)
	}
}

func TestQueryGenerationFailureBecomesText(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	provider := &fakeProvider{respond: func(askdocs.ChatRequest) (askdocs.ChatResponse, error) {
		return askdocs.ChatResponse{}, &askdocs.ErrLLM{Provider: "fake", Message: "rate limited"}
	}}
	svc := newTestService(t, fetcher, provider, &hashEmbedding{})

	answer := svc.AnswerQuery(context.Background(), "sess", "anything")
	if !strings.HasPrefix(answer, "An error occurred: ") {
		t.Fatalf("answer = %q", answer)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	fetcher := &fakeFetcher{docs: testDocuments(t)}
	svc := newTestService(t, fetcher, &fakeProvider{}, &hashEmbedding{})
	ctx := context.Background()

	if err := svc.BuildIndexFromSelection(ctx, "sess", "tok", []string{"txt-1"}); err != nil {
		t.Fatalf("build: %v", err)
	}
	svc.Logout(ctx, "sess")

	session := svc.sessions.Get("sess")
	if session.Index() != nil || len(session.Selection().DocumentIDs) != 0 {
		t.Fatal("logout should clear index and selection")
	}
}
