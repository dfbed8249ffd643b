package vector

import (
	"sort"

	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/pkg/utils"
)

// candidate is one stored record scored against a query.
type candidate struct {
	id       string
	document string
	metadata models.Metadata
	distance float64
}

// topN scores records against query and returns the n closest, ascending by distance.
// Equal distances keep the order of records.
func topN(query []float32, records []*record, n int) []candidate {
	scored := make([]candidate, 0, len(records))
	for _, r := range records {
		scored = append(scored, candidate{
			id:       r.id,
			document: r.document,
			metadata: r.metadata,
			distance: utils.CosineDistance(query, r.embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].distance < scored[j].distance })
	if n < len(scored) {
		scored = scored[:n]
	}
	return scored
}

// appendQuery adds one query's candidates as the next inner slice of res.
func (res *QueryResult) appendQuery(cands []candidate) {
	ids := make([]string, len(cands))
	docs := make([]string, len(cands))
	metas := make([]models.Metadata, len(cands))
	dists := make([]float64, len(cands))
	for i, c := range cands {
		ids[i], docs[i], metas[i], dists[i] = c.id, c.document, c.metadata, c.distance
	}
	res.IDs = append(res.IDs, ids)
	res.Documents = append(res.Documents, docs)
	res.Metadatas = append(res.Metadatas, metas)
	res.Distances = append(res.Distances, dists)
}

// record is a stored chunk.
type record struct {
	id        string
	document  string
	metadata  models.Metadata
	embedding []float32
}
