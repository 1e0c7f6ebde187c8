package embedder

import (
	"context"
	"math"
	"testing"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{3, 4}, nil
}

func (fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0, 2}
	}
	return out, nil
}

func (fixedEmbedder) Dimension() int { return 2 }

func TestNormalizingEmbedder(t *testing.T) {
	e := NewNormalizing(fixedEmbedder{})
	vec, err := e.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected vector %v", vec)
	}
	batch, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch error: %v", err)
	}
	if len(batch) != 2 || batch[1][1] != 1 {
		t.Fatalf("unexpected batch %v", batch)
	}
	if e.Dimension() != 2 {
		t.Fatalf("Dimension = %d", e.Dimension())
	}
}
