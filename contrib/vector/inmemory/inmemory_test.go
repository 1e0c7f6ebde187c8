package inmemory

import (
	"context"
	"testing"

	"github.com/sweetpotato0/selfrag/vector"
)

func TestFlatIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewFlatIndex(0)

	t.Run("add and search", func(t *testing.T) {
		err := idx.Add(ctx, [][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		dists, ids, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("expected 2 results, got %d", len(ids))
		}
		if ids[0] != 0 || dists[0] != 0 {
			t.Fatalf("expected exact match first, got id=%d dist=%v", ids[0], dists[0])
		}
		if dists[1] != 2 {
			t.Fatalf("expected squared distance 2, got %v", dists[1])
		}
	})

	t.Run("pads with sentinel when k exceeds count", func(t *testing.T) {
		_, ids, err := idx.Search(ctx, []float32{0, 1, 0}, 5)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(ids) != 5 {
			t.Fatalf("expected 5 slots, got %d", len(ids))
		}
		if ids[3] != vector.NoMatch || ids[4] != vector.NoMatch {
			t.Fatalf("expected sentinel ids, got %v", ids)
		}
	})

	t.Run("rejects dimension mismatch", func(t *testing.T) {
		if err := idx.Add(ctx, [][]float32{{1, 2}}); err == nil {
			t.Fatalf("expected dimension error")
		}
		if _, _, err := idx.Search(ctx, []float32{1}, 1); err == nil {
			t.Fatalf("expected query dimension error")
		}
	})

	t.Run("count and clear", func(t *testing.T) {
		n, _ := idx.Count(ctx)
		if n != 3 {
			t.Fatalf("expected 3 vectors, got %d", n)
		}
		if err := idx.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		n, _ = idx.Count(ctx)
		if n != 0 {
			t.Fatalf("expected empty index, got %d", n)
		}
	})
}

func TestFlatIndexZeroK(t *testing.T) {
	idx := NewFlatIndex(2)
	dists, ids, err := idx.Search(context.Background(), []float32{1, 1}, 0)
	if err != nil || len(dists) != 0 || len(ids) != 0 {
		t.Fatalf("expected empty result, got %v %v %v", dists, ids, err)
	}
}
