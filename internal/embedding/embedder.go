// Package embedding maps text to fixed-dimension vectors for indexing and querying.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/models"
	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text.
// Implementations are safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the process-wide embedder from cfg. A model that fails to load does not abort
// startup: the returned embedder fails every call with models.ErrEmbeddingUnavailable.
func New(cfg *config.EmbeddingConfig, logger *zap.Logger) Embedder {
	var base Embedder
	switch cfg.Provider {
	case "mock":
		base = NewMockEmbedder(cfg.Dimensions)
	default:
		onnx, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			if logger != nil {
				logger.Error("embedding model failed to load",
					zap.String("model_path", cfg.ModelPath),
					zap.Error(err),
				)
			}
			return NewUnavailable(cfg.Dimensions, err)
		}
		base = onnx
	}
	return WithTimeout(NewCachedEmbedder(base, cfg.CacheSize), cfg.Timeout)
}

// Unavailable is the embedder used when the model could not be loaded.
type Unavailable struct {
	dimensions int
	cause      error
}

// NewUnavailable returns an embedder that always fails with cause.
func NewUnavailable(dimensions int, cause error) *Unavailable {
	return &Unavailable{dimensions: dimensions, cause: cause}
}

func (u *Unavailable) err() error {
	return fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, u.cause)
}

// Embed always fails.
func (u *Unavailable) Embed(context.Context, string) ([]float32, error) { return nil, u.err() }

// EmbedBatch always fails.
func (u *Unavailable) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, u.err()
}

// Dimensions returns the configured dimension.
func (u *Unavailable) Dimensions() int { return u.dimensions }

// Close is a no-op.
func (u *Unavailable) Close() error { return nil }

// timeoutEmbedder bounds each call with a deadline.
type timeoutEmbedder struct {
	Embedder
	timeout time.Duration
}

// WithTimeout wraps e so each Embed/EmbedBatch call runs under a deadline of d.
// d <= 0 returns e unchanged.
func WithTimeout(e Embedder, d time.Duration) Embedder {
	if d <= 0 {
		return e
	}
	return &timeoutEmbedder{Embedder: e, timeout: d}
}

func (t *timeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Embedder.Embed(ctx, text)
}

func (t *timeoutEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Embedder.EmbedBatch(ctx, texts)
}

// embedEach runs embed for every text, stopping at the first error or cancellation.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("embedding batch interrupted at %d/%d: %w", i, len(texts), err)
		}
		emb, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
