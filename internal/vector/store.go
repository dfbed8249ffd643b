// Package vector stores chunk embeddings in a named collection and answers similarity queries.
package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/ticketrag/internal/chunkid"
	"github.com/hyperjump/ticketrag/internal/models"
)

// Store is the contract every backend implements over one collection.
// Distances are cosine distances (1 - cosine similarity); lower is closer.
type Store interface {
	// Upsert writes records; the four slices are order-aligned and equal length.
	// Re-upserting an id overwrites it.
	Upsert(ctx context.Context, ids, documents []string, metadatas []models.Metadata, embeddings [][]float32) error
	// Query returns, per query embedding, up to n records matching where, ascending by distance.
	Query(ctx context.Context, embeddings [][]float32, n int, where map[string]string) (*QueryResult, error)
	// Delete removes records by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
	// IDs lists every id in the collection.
	IDs(ctx context.Context) ([]string, error)
	// Count returns the number of records matching where (all records when where is empty).
	Count(ctx context.Context, where map[string]string) (int, error)
	// Backend names the implementation ("memory", "sqlite", "chroma").
	Backend() string
	Close() error
}

// WhereDeleter is implemented by stores that can delete by metadata filter natively.
type WhereDeleter interface {
	DeleteWhere(ctx context.Context, where map[string]string) (int, error)
}

// Snapshotter is implemented by stores that persist to a file on demand.
type Snapshotter interface {
	Save(path string) error
	Load(path string) error
}

// QueryResult holds one inner slice per query embedding.
type QueryResult struct {
	IDs       [][]string
	Documents [][]string
	Metadatas [][]models.Metadata
	Distances [][]float64
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &models.StoreError{Op: op, Err: err}
}

// checkAligned validates Upsert arguments.
func checkAligned(ids, documents []string, metadatas []models.Metadata, embeddings [][]float32) error {
	n := len(ids)
	if len(documents) != n || len(metadatas) != n || len(embeddings) != n {
		return fmt.Errorf("length mismatch: ids=%d documents=%d metadatas=%d embeddings=%d",
			n, len(documents), len(metadatas), len(embeddings))
	}
	return nil
}

// DeleteWhere removes the records matching where and returns how many were removed.
// Stores with native filtered delete handle it directly. For the rest, ids are listed and
// parsed with the chunk id convention, which encodes the userId and ticketId keys.
// Any other key in where is rejected.
func DeleteWhere(ctx context.Context, s Store, where map[string]string) (int, error) {
	if wd, ok := s.(WhereDeleter); ok {
		return wd.DeleteWhere(ctx, where)
	}
	scope, ok := where[models.MetaUserID]
	if !ok {
		return 0, storeErr("delete", fmt.Errorf("filtered delete requires %q", models.MetaUserID))
	}
	ticketID, byTicket := where[models.MetaTicketID]
	for k := range where {
		if k != models.MetaUserID && k != models.MetaTicketID {
			return 0, storeErr("delete", fmt.Errorf("filter key %q not encoded in chunk ids", k))
		}
	}

	all, err := s.IDs(ctx)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, id := range all {
		if (byTicket && chunkid.InTicketScope(id, ticketID, scope)) || (!byTicket && chunkid.InScope(id, scope)) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}
