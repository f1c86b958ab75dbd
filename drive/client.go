// Package drive is a minimal Google Drive and Docs API client covering
// what document ingestion needs: listing supported files, reading their
// content, and exporting native Google formats.
//
// The client holds no credentials. Every call takes the caller's OAuth
// access token, so one client serves all sessions.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	askdocs "github.com/askdocs-ai/askdocs"
	"github.com/askdocs-ai/askdocs/ingest"
)

const (
	defaultDriveBaseURL = "https://www.googleapis.com/drive/v3"
	defaultDocsBaseURL  = "https://docs.googleapis.com/v1"

	defaultPageSize = 100
)

// listedMimeTypes are the formats offered for selection. Everything else
// in the user's drive is filtered out server-side.
var listedMimeTypes = []string{
	string(ingest.TypeGoogleDoc),
	string(ingest.TypePDF),
	string(ingest.TypePlainText),
	string(ingest.TypeGoogleSlides),
	string(ingest.TypePPTX),
	string(ingest.TypeMSPowerPoint),
}

// File is a drive file listing entry.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithBaseURLs overrides the Drive and Docs API base URLs.
func WithBaseURLs(driveURL, docsURL string) Option {
	return func(cl *Client) {
		cl.driveBaseURL = driveURL
		cl.docsBaseURL = docsURL
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.pageSize = n
		}
	}
}

// Client calls the Drive v3 and Docs v1 REST APIs.
type Client struct {
	httpClient   *http.Client
	driveBaseURL string
	docsBaseURL  string
	pageSize     int
}

// NewClient creates a drive client with a 30-second request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		driveBaseURL: defaultDriveBaseURL,
		docsBaseURL:  defaultDocsBaseURL,
		pageSize:     defaultPageSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// List returns the user's files in the supported formats.
func (c *Client) List(ctx context.Context, token string) ([]File, error) {
	terms := make([]string, len(listedMimeTypes))
	for i, mt := range listedMimeTypes {
		terms[i] = fmt.Sprintf("mimeType='%s'", mt)
	}

	q := url.Values{}
	q.Set("q", strings.Join(terms, " or "))
	q.Set("fields", "files(id, name, mimeType)")
	q.Set("pageSize", fmt.Sprint(c.pageSize))

	body, err := c.get(ctx, token, c.driveBaseURL+"/files?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Files []File `json:"files"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse file listing: %w", err)
	}
	return parsed.Files, nil
}

// GetMetadata returns one file's id, name, and MIME type.
func (c *Client) GetMetadata(ctx context.Context, token, fileID string) (File, error) {
	body, err := c.get(ctx, token, c.driveBaseURL+"/files/"+url.PathEscape(fileID)+"?fields=id,name,mimeType")
	if err != nil {
		return File{}, err
	}

	var f File
	if err := json.Unmarshal(body, &f); err != nil {
		return File{}, fmt.Errorf("parse file metadata: %w", err)
	}
	return f, nil
}

// GetMedia downloads a binary or text file's raw content.
func (c *Client) GetMedia(ctx context.Context, token, fileID string) ([]byte, error) {
	return c.get(ctx, token, c.driveBaseURL+"/files/"+url.PathEscape(fileID)+"?alt=media")
}

// Export converts a native Google file to the given MIME type and
// downloads the result.
func (c *Client) Export(ctx context.Context, token, fileID, mimeType string) ([]byte, error) {
	q := url.Values{}
	q.Set("mimeType", mimeType)
	return c.get(ctx, token, c.driveBaseURL+"/files/"+url.PathEscape(fileID)+"/export?"+q.Encode())
}

// GetStructured returns a Google Doc's structured JSON body from the
// Docs API.
func (c *Client) GetStructured(ctx context.Context, token, fileID string) ([]byte, error) {
	return c.get(ctx, token, c.docsBaseURL+"/documents/"+url.PathEscape(fileID))
}

// Fetch retrieves one file in the representation its extractor expects:
// Google Docs as structured JSON, Google Slides exported to PPTX, and
// everything else as raw media. The returned document's MimeType matches
// the representation, not necessarily the file's native type.
func (c *Client) Fetch(ctx context.Context, token, fileID string) (askdocs.Document, error) {
	meta, err := c.GetMetadata(ctx, token, fileID)
	if err != nil {
		return askdocs.Document{}, err
	}

	doc := askdocs.Document{ID: meta.ID, Name: meta.Name, MimeType: meta.MimeType}

	switch ingest.ContentType(meta.MimeType) {
	case ingest.TypeGoogleDoc:
		doc.Raw, err = c.GetStructured(ctx, token, fileID)
	case ingest.TypeGoogleSlides:
		doc.Raw, err = c.Export(ctx, token, fileID, string(ingest.TypePPTX))
		doc.MimeType = string(ingest.TypePPTX)
	default:
		doc.Raw, err = c.GetMedia(ctx, token, fileID)
	}
	if err != nil {
		return askdocs.Document{}, err
	}
	return doc, nil
}

// get performs an authorized GET and maps authorization failures to
// typed errors.
func (c *Client) get(ctx context.Context, token, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &askdocs.AuthError{Kind: askdocs.AuthExpired, Detail: string(body)}
	case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), "insufficient"):
		return nil, &askdocs.AuthError{Kind: askdocs.AuthMissingScope, Detail: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &askdocs.ErrHTTP{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
