package ollama

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/sweetpotato0/selfrag/vector"
)

// DefaultModel is used when no embedding model is configured.
const DefaultModel = "nomic-embed-text"

// Embedder implements vector.Embedder with a local Ollama embedding model.
type Embedder struct {
	impl      *embeddings.EmbedderImpl
	dimension int
}

var _ vector.Embedder = (*Embedder)(nil)

// New creates an Ollama embedder. dimension is informational; Ollama returns
// the model's native size.
func New(serverURL, model string, dimension int) (*Embedder, error) {
	if model == "" {
		model = DefaultModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}
	return &Embedder{impl: impl, dimension: dimension}, nil
}

// Dimension return number of embedding dimensions
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed converts text to a vector embedding
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return vec, nil
}

// EmbedBatch converts multiple texts to embeddings
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embed batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}
