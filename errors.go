package askdocs

import (
	"errors"
	"fmt"
)

// ExtractionError reports a per-document extraction failure. It is
// non-fatal: the pipeline skips and logs the document, and the batch
// continues.
type ExtractionError struct {
	SourceID string
	Name     string
	MimeType string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %q (%s): %v", e.Name, e.MimeType, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingError reports that the embedding provider was unavailable or
// rejected the request. It is fatal to the whole build operation: no
// partial index is produced and any previously active index stays in place.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding unavailable (%s): %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// ErrEmptyCorpus signals that every selected document failed extraction or
// produced empty text, leaving nothing to index.
var ErrEmptyCorpus = errors.New("empty corpus")

// ErrNotConfigured signals that no provider credentials are configured.
// Index builds and grounded answers cannot run without them; a selection
// is still recorded so the session can rebuild once credentials exist.
var ErrNotConfigured = errors.New("provider not configured")

// IndexBuildError reports a failed index build. Wraps ErrEmptyCorpus when
// the chunk set was empty, or an EmbeddingError when embedding failed.
type IndexBuildError struct {
	Err error
}

func (e *IndexBuildError) Error() string {
	return fmt.Sprintf("index build: %v", e.Err)
}

func (e *IndexBuildError) Unwrap() error { return e.Err }

// GenerationError reports a failed generation call. It is fatal to the
// single answer request only; the service layer converts it to a
// best-effort textual explanation.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AuthErrorKind classifies document-store authorization failures.
type AuthErrorKind int

const (
	// AuthExpired means the access token was rejected; the user must
	// re-authenticate.
	AuthExpired AuthErrorKind = iota
	// AuthMissingScope means the token lacks a required scope.
	AuthMissingScope
)

// AuthError is a document-store boundary failure. The service layer maps
// both kinds to a user-facing instruction to re-authenticate.
type AuthError struct {
	Kind   AuthErrorKind
	Detail string
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case AuthMissingScope:
		return "auth: missing scope: " + e.Detail
	default:
		return "auth: token expired or invalid: " + e.Detail
	}
}

// ErrLLM is a provider-internal failure (request construction, transport,
// malformed response).
type ErrLLM struct {
	Provider string
	Message  string
}

func (e *ErrLLM) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP is a non-2xx response from an external HTTP API.
type ErrHTTP struct {
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}
