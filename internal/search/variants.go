package search

import (
	"strings"

	"github.com/hyperjump/ticketrag/internal/synonyms"
	"github.com/hyperjump/ticketrag/pkg/utils"
)

// Variant names, in execution order.
const (
	VariantRaw        = "raw"
	VariantNormalized = "normalized"
	VariantExpanded   = "expanded"
)

// Variant is one rendering of the user's query that is embedded and searched.
type Variant struct {
	Name string
	Text string
}

// Variants returns the raw query, its normalized form and, when expand is set and the table
// matches a word, the synonym-expanded form. Variants identical to an earlier one are omitted.
func Variants(query string, table *synonyms.Table, expand bool) []Variant {
	raw := strings.TrimSpace(query)
	out := []Variant{{Name: VariantRaw, Text: raw}}

	normalized := Normalize(raw)
	if normalized != raw {
		out = append(out, Variant{Name: VariantNormalized, Text: normalized})
	}
	if expand && table != nil {
		if expanded, ok := table.Expand(raw); ok && expanded != normalized && expanded != raw {
			out = append(out, Variant{Name: VariantExpanded, Text: expanded})
		}
	}
	return out
}

// Normalize lowercases the query and collapses whitespace.
func Normalize(query string) string {
	return strings.ToLower(utils.CollapseWhitespace(query))
}
