package askdocs

// --- Domain types ---

// Document is a raw file fetched from the document store. It is immutable
// and discarded after extraction.
type Document struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Raw      []byte `json:"-"`
}

// ExtractedDoc is the plain-text form of a successfully processed Document.
// Documents whose text is empty after trimming are dropped before this
// stage and never indexed.
type ExtractedDoc struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Text     string `json:"text"`
}

// Chunk is a bounded slice of a document's text, the unit of embedding and
// retrieval. Index preserves ordering within the source document.
type Chunk struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// RetrievalResult is a scored chunk from an index search.
// Score is cosine similarity in [-1, 1]; higher means more relevant.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// Selection is a session's chosen set of document IDs. It is set on
// document-selection submission, read by the query path, and cleared on
// logout.
type Selection struct {
	DocumentIDs []string `json:"document_ids"`
}

// --- LLM protocol types ---

type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// --- ChatMessage constructors ---

func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: "user", Content: text}
}

func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: "system", Content: text}
}
