package models

import "strings"

// Bounds applied to request parameters.
const (
	MinChunkSize = 50
	MaxChunkSize = 8000
)

// IndexRequest is the body of the index and reindex endpoints.
type IndexRequest struct {
	Project  string `json:"project,omitempty"`
	Size     int    `json:"size,omitempty"`
	Overlap  *int   `json:"overlap,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// QueryRequest is the body of the query endpoint.
type QueryRequest struct {
	Query             string `json:"query"`
	TopK              int    `json:"topK,omitempty"`
	Project           string `json:"project,omitempty"`
	Size              int    `json:"size,omitempty"`
	Overlap           *int   `json:"overlap,omitempty"`
	Strategy          string `json:"strategy,omitempty"`
	Reindex           bool   `json:"reindex,omitempty"`
	EnsureIndex       *bool  `json:"ensureIndex,omitempty"`
	UseQueryExpansion bool   `json:"useQueryExpansion,omitempty"`
	Answer            *bool  `json:"answer,omitempty"`
	TicketID          string `json:"ticketId,omitempty"`
}

// Validate checks the query text and clamps topK to [1, maxTopK], using defaultTopK when unset.
func (q *QueryRequest) Validate(defaultTopK, maxTopK int) error {
	if strings.TrimSpace(q.Query) == "" {
		return &InvalidQueryError{Field: "query", Reason: "is required"}
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	if q.TopK <= 0 {
		q.TopK = 1
	}
	return nil
}

// ShouldEnsureIndex defaults to true when the field was omitted.
func (q *QueryRequest) ShouldEnsureIndex() bool {
	return q.EnsureIndex == nil || *q.EnsureIndex
}

// ShouldAnswer defaults to true when the field was omitted.
func (q *QueryRequest) ShouldAnswer() bool {
	return q.Answer == nil || *q.Answer
}

// ChunkParams resolves chunk size and overlap from request values and defaults.
// Size is clamped to [MinChunkSize, MaxChunkSize]; overlap to [0, size-1].
func ChunkParams(size int, overlap *int, defSize, defOverlap int) (int, int) {
	if size <= 0 {
		size = defSize
	}
	if size < MinChunkSize {
		size = MinChunkSize
	}
	if size > MaxChunkSize {
		size = MaxChunkSize
	}
	ov := defOverlap
	if overlap != nil {
		ov = *overlap
	}
	if ov < 0 {
		ov = 0
	}
	if ov >= size {
		ov = size - 1
	}
	return size, ov
}
