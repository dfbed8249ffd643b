package search

import (
	"sort"
	"strconv"

	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/internal/vector"
)

// Candidate is one retrieved chunk from one query variant.
type Candidate struct {
	ID       string
	Text     string
	Metadata models.Metadata
	Distance float64
}

// Candidates flattens the first inner list of a store result.
func Candidates(out *vector.QueryResult) []Candidate {
	if out == nil || len(out.IDs) == 0 {
		return nil
	}
	list := make([]Candidate, len(out.IDs[0]))
	for i := range list {
		list[i] = Candidate{
			ID:       out.IDs[0][i],
			Text:     out.Documents[0][i],
			Metadata: out.Metadatas[0][i],
			Distance: out.Distances[0][i],
		}
	}
	return list
}

// fusionKey identifies the same chunk across variants: ticket, url and chunk position.
func fusionKey(c Candidate) string {
	return c.Metadata.String(models.MetaTicketID) + "\x00" +
		c.Metadata.String(models.MetaURL) + "\x00" +
		strconv.Itoa(c.Metadata.Int(models.MetaChunkIndex))
}

// Fuse merges variant result lists in execution order. Duplicates keep their smallest distance;
// the merged list is sorted ascending by distance, ties keeping first-seen order, and cut to topK.
func Fuse(lists [][]Candidate, topK int) []Candidate {
	var merged []Candidate
	pos := make(map[string]int)
	for _, list := range lists {
		for _, c := range list {
			key := fusionKey(c)
			if i, ok := pos[key]; ok {
				if c.Distance < merged[i].Distance {
					merged[i] = c
				}
				continue
			}
			pos[key] = len(merged)
			merged = append(merged, c)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
