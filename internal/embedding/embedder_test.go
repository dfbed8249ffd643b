package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/pkg/utils"
)

func TestMockEmbedder_deterministicAndNormalized(t *testing.T) {
	e := NewMockEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "The printer is jammed")
	b, _ := e.Embed(ctx, "The printer is jammed")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text must give the same vector")
		}
	}
	var sum float64
	for _, v := range a {
		sum += float64(v * v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("norm^2 = %v, want 1", sum)
	}
	if e.Dimensions() != 64 {
		t.Errorf("Dimensions = %d", e.Dimensions())
	}
}

func TestMockEmbedder_lexicalSimilarity(t *testing.T) {
	e := NewMockEmbedder(384)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "printer jammed")
	near, _ := e.Embed(ctx, "The printer is jammed. Restart it.")
	far, _ := e.Embed(ctx, "VPN password reset for remote staff")
	if utils.CosineDistance(q, near) >= utils.CosineDistance(q, far) {
		t.Error("texts sharing words should be closer")
	}
}

func TestMockEmbedder_emptyText(t *testing.T) {
	v, err := NewMockEmbedder(8).Embed(context.Background(), "   ")
	if err != nil {
		t.Fatal(err)
	}
	if v[0] != 1 {
		t.Errorf("empty text vector = %v", v)
	}
}

func TestUnavailable(t *testing.T) {
	u := NewUnavailable(384, errors.New("model file missing"))
	_, err := u.Embed(context.Background(), "x")
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Errorf("Embed err = %v", err)
	}
	_, err = u.EmbedBatch(context.Background(), []string{"x"})
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Errorf("EmbedBatch err = %v", err)
	}
}

func TestNew_badModelPathIsUnavailable(t *testing.T) {
	cfg := &config.EmbeddingConfig{Provider: "onnx", ModelPath: "/nonexistent/model.onnx", Dimensions: 384, MaxTokens: 16}
	e := New(cfg, nil)
	defer e.Close()
	_, err := e.Embed(context.Background(), "hello")
	if !errors.Is(err, models.ErrEmbeddingUnavailable) {
		t.Errorf("err = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestNew_mock(t *testing.T) {
	cfg := &config.EmbeddingConfig{Provider: "mock", Dimensions: 32, CacheSize: 4, Timeout: time.Second}
	e := New(cfg, nil)
	v, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 32 || e.Dimensions() != 32 {
		t.Errorf("len = %d, dims = %d", len(v), e.Dimensions())
	}
}

func TestEmbedBatch_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockEmbedder(8).EmbedBatch(ctx, []string{"a", "b"}); err == nil {
		t.Error("expected error on canceled context")
	}
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2, // token 0
		3, 4, // token 1
		100, 100, // padding
	}
	got := meanPool(hidden, []int64{1, 1, 0}, 2)
	if got[0] != 2 || got[1] != 3 {
		t.Errorf("meanPool = %v, want [2 3]", got)
	}
}

// blockingEmbedder waits for its context to end.
type blockingEmbedder struct{ *MockEmbedder }

func (b blockingEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b blockingEmbedder) EmbedBatch(ctx context.Context, _ []string) ([][]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	e := WithTimeout(blockingEmbedder{NewMockEmbedder(8)}, 10*time.Millisecond)

	start := time.Now()
	if _, err := e.Embed(context.Background(), "printer"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Embed err = %v, want deadline exceeded", err)
	}
	if _, err := e.EmbedBatch(context.Background(), []string{"a", "b"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("EmbedBatch err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("calls took %v", elapsed)
	}
	if e.Dimensions() != 8 {
		t.Errorf("Dimensions = %d, want 8", e.Dimensions())
	}
}

func TestWithTimeout_zeroIsPassthrough(t *testing.T) {
	base := NewMockEmbedder(8)
	if got := WithTimeout(base, 0); got != Embedder(base) {
		t.Errorf("WithTimeout(e, 0) = %T, want the embedder unchanged", got)
	}
}
