package retriever

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/selfrag/contrib/vector/inmemory"
	"github.com/sweetpotato0/selfrag/rag/document"
	"github.com/sweetpotato0/selfrag/vector"
)

type keywordEmbedder struct{}

var keywordSpace = []string{"methodology", "limitation", "result", "dataset"}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(keywordSpace))
	lower := strings.ToLower(text)
	for idx, kw := range keywordSpace {
		if strings.Contains(lower, kw) {
			vec[idx] = 1
		}
	}
	return vec, nil
}

func (k *keywordEmbedder) Dimension() int {
	return len(keywordSpace)
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := k.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

var paperChunks = []document.Chunk{
	{ID: 0, Text: "The methodology involves training a neural net on labeled data."},
	{ID: 1, Text: "Limitations include high compute cost and data requirements."},
	{ID: 2, Text: "Results show 95% accuracy on the test set."},
	{ID: 3, Text: "Related work covers transformers and attention."},
}

func newIndexedRetriever(t *testing.T, opts ...Option) *Retriever {
	t.Helper()
	r := New(inmemory.NewFlatIndex(0), &keywordEmbedder{}, opts...)
	if err := r.Index(context.Background(), paperChunks); err != nil {
		t.Fatalf("Index error: %v", err)
	}
	return r
}

func TestRetrieveOrdersByDistance(t *testing.T) {
	r := newIndexedRetriever(t, WithBatchSize(3))

	results, err := r.Retrieve(context.Background(), "What is the methodology?", 2)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != 0 || results[0].Rank != 1 || results[0].Score != 0 {
		t.Fatalf("unexpected first result %+v", results[0])
	}
	if results[1].Chunk.ID != 3 || results[1].Rank != 2 || results[1].Score != 1 {
		t.Fatalf("unexpected second result %+v", results[1])
	}
	for _, res := range results {
		if res.Warning != "" {
			t.Fatalf("did not expect warning on %+v", res)
		}
	}
}

func TestRetrieveFlagsButKeepsDistantMatches(t *testing.T) {
	r := newIndexedRetriever(t)

	results, err := r.Retrieve(context.Background(), "What is the methodology?", 10)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != len(paperChunks) {
		t.Fatalf("expected k to be capped at %d, got %d", len(paperChunks), len(results))
	}
	for i, res := range results {
		if res.Rank != i+1 {
			t.Fatalf("rank %d at position %d", res.Rank, i)
		}
		if i > 0 && res.Score < results[i-1].Score {
			t.Fatalf("results not ascending: %v then %v", results[i-1].Score, res.Score)
		}
		flagged := res.Warning == LowSimilarityWarning
		if flagged != (res.Score > DefaultDistanceThreshold) {
			t.Fatalf("warning mismatch for score %v: %q", res.Score, res.Warning)
		}
	}
	if results[2].Warning == "" || results[3].Warning == "" {
		t.Fatalf("expected distant chunks to be flagged")
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r := New(inmemory.NewFlatIndex(0), &keywordEmbedder{})
	results, err := r.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

type sentinelIndex struct{}

func (sentinelIndex) Add(ctx context.Context, vectors [][]float32) error { return nil }
func (sentinelIndex) Search(ctx context.Context, q []float32, k int) ([]float32, []int, error) {
	return []float32{0.5, 0, 0.2}, []int{1, vector.NoMatch, 0}, nil
}
func (sentinelIndex) Count(ctx context.Context) (int, error) { return 0, nil }
func (sentinelIndex) Clear(ctx context.Context) error        { return nil }

func TestRetrieveDropsSentinelIDs(t *testing.T) {
	r := New(sentinelIndex{}, &keywordEmbedder{})
	if err := r.Index(context.Background(), paperChunks[:2]); err != nil {
		t.Fatalf("Index error: %v", err)
	}
	results, err := r.Retrieve(context.Background(), "methodology", 3)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected sentinel slot to be dropped, got %d results", len(results))
	}
	if results[0].Chunk.ID != 0 || results[1].Chunk.ID != 1 {
		t.Fatalf("unexpected order %+v", results)
	}
}

func TestIndexDetectsOutOfSyncIndex(t *testing.T) {
	idx := inmemory.NewFlatIndex(0)
	if err := idx.Add(context.Background(), [][]float32{{1, 0, 0, 0}}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	r := New(idx, &keywordEmbedder{})
	if err := r.Index(context.Background(), paperChunks); err == nil {
		t.Fatalf("expected out-of-sync error")
	}
}

func TestBuildContext(t *testing.T) {
	results := []Result{
		{Chunk: document.Chunk{Text: "alpha"}, Score: 0.12345, Rank: 1},
		{Chunk: document.Chunk{Text: "beta"}, Score: 1.6, Rank: 2, Warning: LowSimilarityWarning},
	}
	want := "[Chunk 1, dist=0.1235]\nalpha\n\n[Chunk 2, dist=1.6000]\nbeta"
	if got := BuildContext(results); got != want {
		t.Fatalf("BuildContext = %q, want %q", got, want)
	}
	if BuildContext(results) != BuildContext(results) {
		t.Fatalf("BuildContext must be deterministic")
	}
	if BuildContext(nil) != "" {
		t.Fatalf("expected empty context for no results")
	}
}

func TestClearResetsState(t *testing.T) {
	r := newIndexedRetriever(t)
	if r.Count() != len(paperChunks) {
		t.Fatalf("Count = %d", r.Count())
	}
	if err := r.Clear(context.Background()); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if r.Count() != 0 || len(r.Chunks()) != 0 {
		t.Fatalf("expected empty retriever after Clear")
	}
}
