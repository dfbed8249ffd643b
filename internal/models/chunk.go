package models

// Metadata keys stored with every chunk. Keys are camelCase to match the ticket API.
const (
	MetaProject         = "project"
	MetaUserID          = "userId"
	MetaTicketID        = "ticketId"
	MetaTicketTitle     = "ticketTitle"
	MetaTicketExcerpt   = "ticketExcerpt"
	MetaAttachmentIndex = "attachmentIndex"
	MetaURL             = "url"
	MetaFilename        = "filename"
	MetaChunkIndex      = "chunkIndex"
	MetaTotalChunks     = "totalChunks"
	MetaContentType     = "contentType"
	MetaContentHash     = "contentHash"
	MetaHasHeadings     = "hasHeadings"
	MetaHasCode         = "hasCode"
	MetaHasNumbers      = "hasNumbers"
	MetaCreatedAt       = "createdAt"
	MetaUpdatedAt       = "updatedAt"
)

// Metadata is the flat key/value payload stored alongside a chunk.
// Values are strings, bools or numbers so every backend can filter on them.
type Metadata map[string]any

// String returns the value at key as a string, or "" when absent or not a string.
func (m Metadata) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the value at key as an int. JSON numbers decode as float64, so both are accepted.
func (m Metadata) Int(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	}
	return 0
}

// Bool returns the value at key as a bool.
func (m Metadata) Bool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// Matches reports whether every key in where has an equal value in m.
func (m Metadata) Matches(where map[string]string) bool {
	for k, want := range where {
		if m.String(k) != want {
			return false
		}
	}
	return true
}

// Chunk is one indexed span of attachment text.
type Chunk struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SearchText string    `json:"searchText,omitempty"`
	Embedding  []float32 `json:"-"`
	Metadata   Metadata  `json:"metadata"`
}

// EmbeddingInput returns the text that should be embedded for c.
func (c *Chunk) EmbeddingInput() string {
	if c.SearchText != "" {
		return c.SearchText
	}
	return c.Text
}
