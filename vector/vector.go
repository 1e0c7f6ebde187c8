package vector

import (
	"context"
	"math"
)

// NoMatch is the id reported for result slots that have no candidate, as flat
// nearest-neighbour indexes do when k exceeds the number of stored vectors.
const NoMatch = -1

// Index is a nearest-neighbour index over dense vectors. Vectors are assigned
// sequential ids in insertion order starting at 0.
type Index interface {
	// Add appends vectors to the index.
	Add(ctx context.Context, vectors [][]float32) error

	// Search returns up to k (distance, id) pairs ordered by ascending distance.
	// Slots without a candidate carry id NoMatch.
	Search(ctx context.Context, query []float32, k int) ([]float32, []int, error)

	// Count returns the number of indexed vectors.
	Count(ctx context.Context) (int, error)

	// Clear removes all vectors.
	Clear(ctx context.Context) error
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// SquaredL2 returns the squared Euclidean distance between two vectors, the
// metric reported by flat L2 indexes. Mismatched lengths yield +Inf.
func SquaredL2(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(math.Inf(1))
	}
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// EuclideanDistance calculates the Euclidean distance between two vectors
func EuclideanDistance(a, b []float32) float32 {
	return float32(math.Sqrt(float64(SquaredL2(a, b))))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// PadResults extends distances and ids to length k with NoMatch slots.
func PadResults(distances []float32, ids []int, k int) ([]float32, []int) {
	for len(ids) < k {
		distances = append(distances, math.MaxFloat32)
		ids = append(ids, NoMatch)
	}
	return distances, ids
}
