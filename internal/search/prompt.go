package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/ticketrag/internal/llm"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/pkg/utils"
)

// NoInformationAnswer is returned, without calling the model, when retrieval finds nothing.
const NoInformationAnswer = "No relevant information was found in your tickets' attachments for this question."

const systemPrompt = "You are an IT helpdesk assistant. Answer strictly using the provided context. " +
	"Cite the sources you use by their bracketed number, for example [1]. " +
	"If the context does not contain the answer, say there is not enough information."

// sourceLabel names a result for the context block: ticket title and filename when known.
func sourceLabel(m models.Metadata) string {
	var parts []string
	if title := m.String(models.MetaTicketTitle); title != "" {
		parts = append(parts, title)
	}
	if name := m.String(models.MetaFilename); name != "" {
		parts = append(parts, name)
	}
	if len(parts) == 0 {
		if url := m.String(models.MetaURL); url != "" {
			return url
		}
		return "unknown"
	}
	return strings.Join(parts, " / ")
}

// BuildContext renders results as numbered sources with excerpts of at most excerptChars runes.
func BuildContext(results []Candidate, excerptChars int) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		excerpt := r.Text
		if excerptChars > 0 {
			excerpt = utils.Prefix(r.Text, excerptChars)
		}
		blocks[i] = fmt.Sprintf("[%d] %s\n%s", i+1, sourceLabel(r.Metadata), excerpt)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// BuildMessages returns the system and user messages for answering query from results.
func BuildMessages(query string, results []Candidate, excerptChars int) []llm.Message {
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer concisely and cite sources like [1].",
		BuildContext(results, excerptChars), query)
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user},
	}
}

// BuildSources lists results as citations numbered from 1, with relevance = 1 - distance.
func BuildSources(results []Candidate) []*models.Source {
	sources := make([]*models.Source, len(results))
	for i, r := range results {
		sources[i] = &models.Source{
			Index:       i + 1,
			URL:         r.Metadata.String(models.MetaURL),
			Filename:    r.Metadata.String(models.MetaFilename),
			TicketID:    r.Metadata.String(models.MetaTicketID),
			TicketTitle: r.Metadata.String(models.MetaTicketTitle),
			ContentType: r.Metadata.String(models.MetaContentType),
			Relevance:   1 - r.Distance,
		}
	}
	return sources
}
