package askdocs

import (
	"context"
	"strings"
)

// NotConfiguredMessage is the terminal response when no generation
// credentials are configured.
const NotConfiguredMessage = "The language model is not configured. Set an API key to enable answering."

// Default low-confidence heuristics. The substring match and length floor
// can misfire on short but correct answers ("Paris."), so both are
// configurable.
const (
	DefaultTopK           = 4
	DefaultMinAnswerChars = 50
)

// DefaultFallbackMarkers are answer substrings treated as the model
// declining to answer from the documents.
var DefaultFallbackMarkers = []string{"I don't know"}

// stuffPrompt instructs the model to answer only from the supplied context
// and to decline explicitly otherwise, which is what makes the
// low-confidence marker detectable.
const stuffPrompt = `Use the following pieces of context to answer the question at the end. If the answer is not contained in the context, just say "I don't know". Do not make up an answer.`

// AnswererOption configures an Answerer.
type AnswererOption func(*answererConfig)

type answererConfig struct {
	topK            int
	minAnswerChars  int
	fallbackMarkers []string
	generalPrefix   string
	apologyPrefix   string
}

// WithTopK sets how many chunks are retrieved per query.
func WithTopK(k int) AnswererOption {
	return func(c *answererConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithMinAnswerChars sets the low-confidence length floor: a grounded
// answer whose trimmed length is below it triggers the general-knowledge
// fallback.
func WithMinAnswerChars(n int) AnswererOption {
	return func(c *answererConfig) {
		if n >= 0 {
			c.minAnswerChars = n
		}
	}
}

// WithFallbackMarkers sets the answer substrings that trigger the
// general-knowledge fallback.
func WithFallbackMarkers(markers []string) AnswererOption {
	return func(c *answererConfig) { c.fallbackMarkers = markers }
}

// Answerer orchestrates retrieval-then-generation with a general-knowledge
// fallback. Each Answer call derives its state fresh from the provider and
// index it is given; nothing is persisted between calls.
//
// States:
//
//	NoKey:         no provider configured, fixed not-configured text.
//	NoIndex:       nil or empty index, general-knowledge answer.
//	Retrieving:    search the index, stuff the chunks, generate.
//	LowConfidence: grounded answer contains a fallback marker or is too
//	               short, apology prefix plus general-knowledge answer.
type Answerer struct {
	provider Provider
	cfg      answererConfig
}

// NewAnswerer creates an Answerer. A nil provider is valid and puts every
// call in the NoKey state.
func NewAnswerer(p Provider, opts ...AnswererOption) *Answerer {
	cfg := answererConfig{
		topK:            DefaultTopK,
		minAnswerChars:  DefaultMinAnswerChars,
		fallbackMarkers: DefaultFallbackMarkers,
		generalPrefix:   "No documents selected. Using general knowledge: ",
		apologyPrefix:   "I couldn't find the answer in your selected documents. However, based on general knowledge: ",
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Answerer{provider: p, cfg: cfg}
}

// Answer runs one query through the state machine. idx may be nil.
// The only error kind returned is *GenerationError; callers map it to
// user-facing text.
func (a *Answerer) Answer(ctx context.Context, idx *Index, query string) (string, error) {
	if a.provider == nil {
		return NotConfiguredMessage, nil
	}

	if idx == nil || idx.Len() == 0 {
		general, err := a.GeneralAnswer(ctx, query)
		if err != nil {
			return "", err
		}
		return a.cfg.generalPrefix + general, nil
	}

	results, err := idx.Search(ctx, query, a.cfg.topK)
	if err != nil {
		return "", &GenerationError{Provider: a.provider.Name(), Err: err}
	}

	grounded, err := a.generate(ctx, buildStuffedPrompt(results, query))
	if err != nil {
		return "", err
	}

	if !a.lowConfidence(grounded) {
		return grounded, nil
	}

	general, err := a.GeneralAnswer(ctx, query)
	if err != nil {
		return "", err
	}
	return a.cfg.apologyPrefix + general, nil
}

// GeneralAnswer sends the raw query with no retrieved context.
func (a *Answerer) GeneralAnswer(ctx context.Context, query string) (string, error) {
	if a.provider == nil {
		return "", &GenerationError{Provider: "none", Err: ErrEmptyCorpus}
	}
	return a.generate(ctx, query)
}

func (a *Answerer) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.provider.Chat(ctx, ChatRequest{
		Messages: []ChatMessage{UserMessage(prompt)},
	})
	if err != nil {
		return "", &GenerationError{Provider: a.provider.Name(), Err: err}
	}
	return strings.TrimSpace(resp.Content), nil
}

// lowConfidence reports whether a grounded answer should trigger the
// general-knowledge fallback.
func (a *Answerer) lowConfidence(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < a.cfg.minAnswerChars {
		return true
	}
	for _, marker := range a.cfg.fallbackMarkers {
		if marker != "" && strings.Contains(trimmed, marker) {
			return true
		}
	}
	return false
}

// buildStuffedPrompt assembles the retrieved chunks verbatim plus the query.
func buildStuffedPrompt(results []RetrievalResult, query string) string {
	var b strings.Builder
	b.WriteString(stuffPrompt)
	b.WriteString("\n\n")
	for _, r := range results {
		b.WriteString(r.Chunk.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
