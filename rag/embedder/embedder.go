package embedder

import (
	"context"

	"github.com/sweetpotato0/selfrag/vector"
)

var _ vector.Embedder = (*Normalizing)(nil)

// Normalizing wraps a vector.Embedder and scales every vector to unit length,
// so L2 distances stay on the [0, 4] scale the low-similarity threshold is
// calibrated for.
type Normalizing struct {
	base vector.Embedder
}

// NewNormalizing creates a new adapter.
func NewNormalizing(base vector.Embedder) *Normalizing {
	return &Normalizing{base: base}
}

// Embed embeds and normalises one text.
func (n *Normalizing) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := n.base.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return vector.Normalize(vec), nil
}

// EmbedBatch embeds and normalises every text.
func (n *Normalizing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := n.base.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range vecs {
		vecs[i] = vector.Normalize(vecs[i])
	}
	return vecs, nil
}

// Dimension reports the wrapped embedder's dimension.
func (n *Normalizing) Dimension() int {
	return n.base.Dimension()
}
