package gemini

import "net/http"

// Option configures either provider type. Options that do not apply to a
// given type are ignored by it.
type Option interface {
	applyChat(*Gemini)
	applyEmbed(*GeminiEmbedding)
}

type optionFunc struct {
	chat  func(*Gemini)
	embed func(*GeminiEmbedding)
}

func (o optionFunc) applyChat(g *Gemini) {
	if o.chat != nil {
		o.chat(g)
	}
}

func (o optionFunc) applyEmbed(e *GeminiEmbedding) {
	if o.embed != nil {
		o.embed(e)
	}
}

// WithHTTPClient replaces the default HTTP client, for timeouts or test
// transports.
func WithHTTPClient(c *http.Client) Option {
	return optionFunc{
		chat:  func(g *Gemini) { g.httpClient = c },
		embed: func(e *GeminiEmbedding) { e.httpClient = c },
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return optionFunc{
		chat:  func(g *Gemini) { g.baseURL = url },
		embed: func(e *GeminiEmbedding) { e.baseURL = url },
	}
}

// WithTemperature sets the sampling temperature for generation.
func WithTemperature(t float64) Option {
	return optionFunc{
		chat: func(g *Gemini) { g.temperature = t },
	}
}
