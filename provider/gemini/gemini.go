// Package gemini implements the Google Gemini chat and embedding providers.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	askdocs "github.com/askdocs-ai/askdocs"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini implements askdocs.Provider via the generateContent endpoint.
type Gemini struct {
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	temperature float64
}

// New creates a Gemini chat provider.
func New(apiKey, model string, opts ...Option) *Gemini {
	g := &Gemini{
		apiKey:      apiKey,
		model:       model,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{},
		temperature: 0.3,
	}
	for _, opt := range opts {
		opt.applyChat(g)
	}
	return g
}

// Name returns "gemini".
func (g *Gemini) Name() string { return "gemini" }

// Chat sends a non-streaming chat request and returns the complete response.
func (g *Gemini) Chat(ctx context.Context, req askdocs.ChatRequest) (askdocs.ChatResponse, error) {
	body := buildBody(req.Messages, g.temperature)
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	respBody, err := postJSON(ctx, g.httpClient, url, body)
	if err != nil {
		return askdocs.ChatResponse{}, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return askdocs.ChatResponse{}, g.wrapErr("failed to parse response JSON: " + err.Error())
	}

	var content strings.Builder
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			content.WriteString(part.Text)
		}
	}

	var usage askdocs.Usage
	if parsed.UsageMetadata != nil {
		usage.InputTokens = parsed.UsageMetadata.PromptTokenCount
		usage.OutputTokens = parsed.UsageMetadata.CandidatesTokenCount
	}

	return askdocs.ChatResponse{
		Content: content.String(),
		Usage:   usage,
	}, nil
}

func (g *Gemini) wrapErr(msg string) error {
	return &askdocs.ErrLLM{Provider: "gemini", Message: msg}
}

// buildBody constructs the generateContent request body. System messages
// accumulate into systemInstruction; user and assistant messages become
// contents entries.
func buildBody(messages []askdocs.ChatMessage, temperature float64) map[string]any {
	var systemParts []string
	var contents []map[string]any

	for _, m := range messages {
		if m.Role == "system" {
			systemParts = append(systemParts, m.Content)
			continue
		}
		contents = append(contents, map[string]any{
			"role": mapRole(m.Role),
			"parts": []map[string]any{
				{"text": m.Content},
			},
		})
	}

	body := map[string]any{
		"contents": contents,
		"generationConfig": map[string]any{
			"temperature": temperature,
		},
	}

	if len(systemParts) > 0 {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": strings.Join(systemParts, "\n\n")},
			},
		}
	}

	return body
}

// mapRole converts standard roles to Gemini API roles.
func mapRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return role
}

// ---- Embedding provider ----

// GeminiEmbedding implements askdocs.EmbeddingProvider via the
// batchEmbedContents endpoint. Each Embed call is a single request
// regardless of batch size; callers control batch sizing upstream.
type GeminiEmbedding struct {
	apiKey     string
	model      string
	dims       int
	baseURL    string
	httpClient *http.Client
}

// NewEmbedding creates a Gemini embedding provider.
func NewEmbedding(apiKey, model string, dims int, opts ...Option) *GeminiEmbedding {
	e := &GeminiEmbedding{
		apiKey:     apiKey,
		model:      model,
		dims:       dims,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt.applyEmbed(e)
	}
	return e
}

// Name returns "gemini".
func (e *GeminiEmbedding) Name() string { return "gemini" }

// Dimensions returns the configured embedding dimensionality.
func (e *GeminiEmbedding) Dimensions() int { return e.dims }

// Embed embeds all texts in one batch request and returns the vectors in
// input order.
func (e *GeminiEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requests := make([]map[string]any, len(texts))
	for i, text := range texts {
		requests[i] = map[string]any{
			"model": "models/" + e.model,
			"content": map[string]any{
				"parts": []map[string]any{
					{"text": text},
				},
			},
			"outputDimensionality": e.dims,
		}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", e.baseURL, e.model, e.apiKey)
	respBody, err := postJSON(ctx, e.httpClient, url, map[string]any{"requests": requests})
	if err != nil {
		return nil, err
	}

	var parsed batchEmbedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &askdocs.ErrLLM{Provider: "gemini", Message: "failed to parse embed response: " + err.Error()}
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, &askdocs.ErrLLM{
			Provider: "gemini",
			Message:  fmt.Sprintf("got %d embeddings for %d texts", len(parsed.Embeddings), len(texts)),
		}
	}

	out := make([][]float32, len(parsed.Embeddings))
	for i, emb := range parsed.Embeddings {
		vec := make([]float32, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

// postJSON marshals body, POSTs it, and returns the raw response body.
// Non-2xx statuses become ErrHTTP; everything else becomes ErrLLM.
func postJSON(ctx context.Context, client *http.Client, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &askdocs.ErrLLM{Provider: "gemini", Message: "marshal body: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return nil, &askdocs.ErrLLM{Provider: "gemini", Message: "create request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &askdocs.ErrLLM{Provider: "gemini", Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &askdocs.ErrLLM{Provider: "gemini", Message: "failed to read response body: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &askdocs.ErrHTTP{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// ---- Response parsing types ----

type generateResponse struct {
	Candidates    []candidate `json:"candidates"`
	UsageMetadata *usageMeta  `json:"usageMetadata"`
}

type candidate struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type usageMeta struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

// Compile-time interface assertions.
var (
	_ askdocs.Provider          = (*Gemini)(nil)
	_ askdocs.EmbeddingProvider = (*GeminiEmbedding)(nil)
)
