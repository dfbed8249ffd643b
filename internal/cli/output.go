// Package cli provides the HTTP client and output formatting used by the ticketrag CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteQueryResults writes a query response to w in the given format.
func WriteQueryResults(w io.Writer, resp *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms (top %d, %d tickets)\n\n",
		len(resp.Results), resp.QueryTime, resp.TopK, resp.TicketsCount)
	if resp.Answer != nil {
		fmt.Fprintln(w, "--- Answer ---")
		fmt.Fprintf(w, "%s\n\n", *resp.Answer)
	}
	for i, r := range resp.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] Distance: %.4f | Ticket: %s\n", i+1, r.Score, r.Metadata.String(models.MetaTicketID))
		if title := r.Metadata.String(models.MetaTicketTitle); title != "" {
			fmt.Fprintf(w, "Title: %s\n", title)
		}
		if name := r.Metadata.String(models.MetaFilename); name != "" {
			fmt.Fprintf(w, "File: %s\n", name)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Text, 200))
	}
	return nil
}

// WriteIndexResult writes an index or reindex response.
func WriteIndexResult(w io.Writer, resp *models.IndexResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%s: %d chunks from %d tickets\n", resp.Message, resp.ChunksIndexed, resp.TicketsCount)
	if resp.TicketID != "" {
		fmt.Fprintf(w, "ticket:          %s\n", resp.TicketID)
	}
	if resp.DeletedVectors != nil {
		fmt.Fprintf(w, "deleted_vectors: %d\n", *resp.DeletedVectors)
	}
	return nil
}

// Status is the shape of GET /status.
type Status struct {
	Backend        string                 `json:"backend"`
	Collection     string                 `json:"collection"`
	TotalVectors   int                    `json:"total_vectors"`
	UserVectors    *int                   `json:"user_vectors,omitempty"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

// WriteStatus writes a status response.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "backend:            %s\n", s.Backend)
	fmt.Fprintf(w, "collection:         %s\n", s.Collection)
	fmt.Fprintf(w, "total_vectors:      %d   # chunks across all users\n", s.TotalVectors)
	if s.UserVectors != nil {
		fmt.Fprintf(w, "user_vectors:       %d   # chunks owned by --user\n", *s.UserVectors)
	}
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", *s.DiskUsageBytes)
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		for _, k := range []string{
			"project", "strategy", "chunk_size", "chunk_overlap", "min_chunk_size",
			"default_top_k", "max_top_k", "candidate_factor", "clean_embeddings",
			"embedding", "dimensions", "llm_enabled",
		} {
			if v, ok := s.Config[k]; ok {
				fmt.Fprintf(w, "%-19s %v\n", k+":", v)
			}
		}
	}
	return nil
}
