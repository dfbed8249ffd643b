package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/ticketrag/internal/config"
)

// BackendType names a Store implementation.
type BackendType string

const (
	// BackendMemory keeps records in process memory, optionally snapshotted to vector.path.
	BackendMemory BackendType = "memory"
	// BackendSQLite keeps records in a SQLite file at vector.path.
	BackendSQLite BackendType = "sqlite"
	// BackendChroma uses a remote Chroma server.
	BackendChroma BackendType = "chroma"
)

// NewStore creates the store selected by cfg.Backend for vectors of the given dimension.
// A memory store loads its snapshot from cfg.Path when one exists.
func NewStore(ctx context.Context, cfg *config.VectorConfig, dimensions int) (Store, error) {
	switch BackendType(cfg.Backend) {
	case BackendMemory, "":
		m, err := NewMemoryStore(dimensions)
		if err != nil {
			return nil, err
		}
		if err := m.Load(cfg.Path); err != nil {
			return nil, fmt.Errorf("load memory snapshot: %w", err)
		}
		return m, nil
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path, cfg.Collection, dimensions)
	case BackendChroma:
		return NewChromaStore(ctx, ChromaOptions{
			URL:        cfg.Chroma.URL,
			Tenant:     cfg.Chroma.Tenant,
			Database:   cfg.Chroma.Database,
			Collection: cfg.Collection,
			APIKey:     cfg.Chroma.APIKey,
			Timeout:    cfg.Chroma.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown vector backend: %s (supported: memory, sqlite, chroma)", cfg.Backend)
	}
}
