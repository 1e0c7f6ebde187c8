// Package chromem adapts an embedded chromem-go collection to vector.Index.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"
	"github.com/sweetpotato0/selfrag/vector"
)

var _ vector.Index = (*Index)(nil)

// DefaultCollection is used when no collection name is configured.
const DefaultCollection = "selfrag"

var errNoEmbeddingFunc = errors.New("chromem index stores precomputed embeddings only")

// Index stores vectors in a chromem-go collection. chromem normalises vectors
// and ranks by cosine similarity; distances are reported as squared L2 between
// the unit vectors (2 - 2*similarity) so they share the flat index scale.
type Index struct {
	mu         sync.Mutex
	db         *chromemgo.DB
	name       string
	collection *chromemgo.Collection
}

// New creates an in-process chromem database with one collection.
func New(collection string) (*Index, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	idx := &Index{db: chromemgo.NewDB(), name: collection}
	if err := idx.open(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (i *Index) open() error {
	c, err := i.db.GetOrCreateCollection(i.name, nil, rejectEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	i.collection = c
	return nil
}

func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// Add stores the vectors as documents whose ids are their insertion positions.
func (i *Index) Add(ctx context.Context, vectors [][]float32) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	start := i.collection.Count()
	docs := make([]chromemgo.Document, len(vectors))
	for n, vec := range vectors {
		if len(vec) == 0 {
			return fmt.Errorf("vector %d cannot be empty", n)
		}
		emb := make([]float32, len(vec))
		copy(emb, vec)
		docs[n] = chromemgo.Document{
			ID:        strconv.Itoa(start + n),
			Embedding: emb,
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := i.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search queries the collection for the k most similar vectors.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if k <= 0 {
		return nil, nil, nil
	}
	if len(query) == 0 {
		return nil, nil, fmt.Errorf("query vector cannot be empty")
	}
	n := k
	if count := i.collection.Count(); n > count {
		n = count
	}
	distances := make([]float32, 0, k)
	ids := make([]int, 0, k)
	if n > 0 {
		q := make([]float32, len(query))
		copy(q, query)
		results, err := i.collection.QueryWithOptions(ctx, chromemgo.QueryOptions{
			QueryEmbedding: q,
			NResults:       n,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to query by similarity: %w", err)
		}
		for _, r := range results {
			id, err := strconv.Atoi(r.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("unexpected document id %q: %w", r.ID, err)
			}
			distances = append(distances, similarityToDistance(r.Similarity))
			ids = append(ids, id)
		}
	}
	distances, ids = vector.PadResults(distances, ids, k)
	return distances, ids, nil
}

func similarityToDistance(sim float32) float32 {
	d := 2 - 2*sim
	if d < 0 {
		return 0
	}
	return d
}

// Count returns the number of stored vectors.
func (i *Index) Count(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.collection.Count(), nil
}

// Clear drops and recreates the collection.
func (i *Index) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.db.DeleteCollection(i.name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return i.open()
}
