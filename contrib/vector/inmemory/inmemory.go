package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sweetpotato0/selfrag/vector"
)

var _ vector.Index = (*FlatIndex)(nil)

// FlatIndex is an exact, brute-force L2 index. Distances are squared L2.
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

// NewFlatIndex creates an empty index. A zero dimension is fixed by the first Add.
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{dimension: dimension}
}

// Add appends vectors; ids continue from the current count.
func (s *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, vec := range vectors {
		if len(vec) == 0 {
			return fmt.Errorf("vector %d cannot be empty", i)
		}
		if s.dimension == 0 {
			s.dimension = len(vec)
		}
		if len(vec) != s.dimension {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", i, len(vec), s.dimension)
		}
	}
	for _, vec := range vectors {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		s.vectors = append(s.vectors, cp)
	}
	return nil
}

// Search scans every vector and returns the k closest.
func (s *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]float32, []int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 {
		return nil, nil, nil
	}
	if len(query) == 0 {
		return nil, nil, fmt.Errorf("query vector cannot be empty")
	}
	if s.dimension != 0 && len(query) != s.dimension {
		return nil, nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), s.dimension)
	}

	type hit struct {
		id       int
		distance float32
	}
	hits := make([]hit, len(s.vectors))
	for i, vec := range s.vectors {
		hits[i] = hit{id: i, distance: vector.SquaredL2(query, vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].distance < hits[j].distance
	})

	limit := k
	if limit > len(hits) {
		limit = len(hits)
	}
	distances := make([]float32, 0, k)
	ids := make([]int, 0, k)
	for _, h := range hits[:limit] {
		distances = append(distances, h.distance)
		ids = append(ids, h.id)
	}
	distances, ids = vector.PadResults(distances, ids, k)
	return distances, ids, nil
}

// Count returns the number of vectors
func (s *FlatIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Clear removes all vectors but keeps the dimension.
func (s *FlatIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	return nil
}
