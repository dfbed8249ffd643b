package embedding

import (
	"context"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

// countingEmbedder counts texts passed to the wrapped embedder.
type countingEmbedder struct {
	Embedder
	texts int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.texts++
	return c.Embedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.texts += len(texts)
	return c.Embedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_onlyMissesReachModel(t *testing.T) {
	inner := &countingEmbedder{Embedder: NewMockEmbedder(16)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := e.Embed(ctx, "printer"); err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedBatch(ctx, []string{"printer", "scanner", "printer"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("len = %d", len(vecs))
	}
	// only "printer" (first call) and "scanner" reach the model
	if inner.texts != 2 {
		t.Errorf("model saw %d texts, want 2", inner.texts)
	}
	for i := range vecs[0] {
		if vecs[0][i] != vecs[2][i] {
			t.Fatal("duplicate texts should produce identical vectors")
		}
	}
}

func TestNewCachedEmbedder_zeroCapacity(t *testing.T) {
	m := NewMockEmbedder(4)
	if NewCachedEmbedder(m, 0) != Embedder(m) {
		t.Error("zero capacity should return the embedder unchanged")
	}
}
