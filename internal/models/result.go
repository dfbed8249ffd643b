package models

// QueryResult is one retrieved chunk. Score is the raw store distance; lower is closer.
type QueryResult struct {
	ID       string   `json:"id,omitempty"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// Source is a citation entry accompanying a synthesized answer.
type Source struct {
	Index       int     `json:"index"`
	URL         string  `json:"url"`
	Filename    string  `json:"filename,omitempty"`
	TicketID    string  `json:"ticketId"`
	TicketTitle string  `json:"ticketTitle,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	Relevance   float64 `json:"relevance"`
}

// QueryResponse is the body returned by the query endpoint.
type QueryResponse struct {
	Query        string         `json:"query"`
	TopK         int            `json:"topK"`
	TicketsCount int            `json:"ticketsCount"`
	Indexed      int            `json:"indexed,omitempty"`
	Results      []*QueryResult `json:"results"`
	Answer       *string        `json:"answer"`
	Sources      []*Source      `json:"sources,omitempty"`
	QueryTime    int64          `json:"queryTimeMs"`
}

// IndexResponse is the body returned by the index and reindex endpoints.
type IndexResponse struct {
	Message        string   `json:"message,omitempty"`
	TicketID       string   `json:"ticketId,omitempty"`
	TicketsCount   int      `json:"ticketsCount"`
	ChunksIndexed  int      `json:"chunksIndexed"`
	IDs            []string `json:"ids"`
	DeletedVectors *int     `json:"deletedVectors,omitempty"`
}
