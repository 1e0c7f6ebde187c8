package chromem

import (
	"context"
	"math"
	"testing"

	"github.com/sweetpotato0/selfrag/vector"
)

func TestIndexSearchOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	idx, err := New("")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if err := idx.Add(ctx, [][]float32{{1, 0}, {0, 1}, {0.8, 0.6}}); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	dists, ids, err := idx.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	want := []int{0, 2, 1}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("rank %d: want id %d, got %d (all %v)", i, id, ids[i], ids)
		}
	}
	if dists[0] > 1e-5 {
		t.Fatalf("identical vector should have ~0 distance, got %v", dists[0])
	}
	if math.Abs(float64(dists[1])-0.4) > 1e-4 {
		t.Fatalf("expected distance 0.4, got %v", dists[1])
	}
	if math.Abs(float64(dists[2])-2) > 1e-4 {
		t.Fatalf("expected distance 2, got %v", dists[2])
	}
}

func TestIndexPadsAndClears(t *testing.T) {
	ctx := context.Background()
	idx, err := New("pad")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	_, ids, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search on empty index error: %v", err)
	}
	if ids[0] != vector.NoMatch || ids[1] != vector.NoMatch {
		t.Fatalf("expected sentinels on empty index, got %v", ids)
	}

	if err := idx.Add(ctx, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	_, ids, _ = idx.Search(ctx, []float32{1, 0}, 2)
	if ids[0] != 0 || ids[1] != vector.NoMatch {
		t.Fatalf("expected [0 -1], got %v", ids)
	}

	if err := idx.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n, _ := idx.Count(ctx); n != 0 {
		t.Fatalf("expected empty collection, got %d", n)
	}
	if err := idx.Add(ctx, [][]float32{{0, 1}}); err != nil {
		t.Fatalf("Add after clear error: %v", err)
	}
	if n, _ := idx.Count(ctx); n != 1 {
		t.Fatalf("expected 1 document, got %d", n)
	}
}
