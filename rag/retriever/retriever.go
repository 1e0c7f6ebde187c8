package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/rag/document"
	"github.com/sweetpotato0/selfrag/vector"
)

const (
	// DefaultTopK is the number of neighbours fetched per query.
	DefaultTopK = 3
	// DefaultDistanceThreshold marks matches above this distance as low confidence.
	DefaultDistanceThreshold = 1.5
	// LowSimilarityWarning annotates low-confidence results.
	LowSimilarityWarning = "Low similarity - might not be relevant"
)

// Result is one ranked match for a query.
type Result struct {
	Chunk   document.Chunk `json:"chunk"`
	Score   float64        `json:"score"` // distance, lower is closer
	Rank    int            `json:"rank"`  // 1-based
	Warning string         `json:"warning,omitempty"`
}

// Config controls retrieval behaviour.
type Config struct {
	DistanceThreshold float64
	BatchSize         int
}

// Option customizes retriever config.
type Option func(*Config)

// WithDistanceThreshold sets the distance above which results are flagged.
func WithDistanceThreshold(d float64) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.DistanceThreshold = d
		}
	}
}

// WithBatchSize caps how many chunks are embedded per embedder call.
func WithBatchSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.BatchSize = n
		}
	}
}

// Retriever embeds chunks into a vector index and answers k-nearest queries.
// The i-th indexed chunk is stored under index id i.
type Retriever struct {
	index    vector.Index
	embedder vector.Embedder
	cfg      Config
	logger   *slog.Logger

	mu     sync.RWMutex
	chunks []document.Chunk
}

// New creates a retriever.
func New(index vector.Index, emb vector.Embedder, opts ...Option) *Retriever {
	cfg := Config{
		DistanceThreshold: DefaultDistanceThreshold,
		BatchSize:         64,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Retriever{
		index:    index,
		embedder: emb,
		cfg:      cfg,
		logger:   logging.WithComponent("retriever"),
	}
}

// Index embeds chunks and appends them to the vector index.
func (r *Retriever) Index(ctx context.Context, chunks []document.Chunk) error {
	if r.index == nil || r.embedder == nil {
		return fmt.Errorf("retriever not fully configured")
	}
	if len(chunks) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count, err := r.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count index: %w", err)
	}
	if count != len(r.chunks) {
		return fmt.Errorf("vector index holds %d vectors but retriever tracks %d chunks", count, len(r.chunks))
	}

	for start := 0; start < len(chunks); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		vecs, err := r.embedder.EmbedBatch(ctx, document.Texts(batch))
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
		}
		if err := r.index.Add(ctx, vecs); err != nil {
			return fmt.Errorf("store chunks %d-%d: %w", start, end-1, err)
		}
		r.chunks = append(r.chunks, batch...)
	}
	r.logger.Info("chunks indexed", "added", len(chunks), "total", len(r.chunks))
	return nil
}

// Retrieve returns up to k results for query ordered by ascending distance.
// Fewer indexed chunks than k yields fewer results; sentinel slots are dropped.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := k
	if limit > len(r.chunks) {
		limit = len(r.chunks)
	}
	if limit <= 0 {
		r.logger.Debug("nothing to retrieve", "k", k, "indexed", len(r.chunks))
		return nil, nil
	}

	qv, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	dists, ids, err := r.index.Search(ctx, qv, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]Result, 0, len(ids))
	for i, id := range ids {
		if id == vector.NoMatch || id < 0 || id >= len(r.chunks) {
			continue
		}
		score := float64(dists[i])
		if score < 0 {
			score = 0
		}
		results = append(results, Result{Chunk: r.chunks[id], Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
		if results[i].Score > r.cfg.DistanceThreshold {
			results[i].Warning = LowSimilarityWarning
		}
	}
	r.logger.Debug("retrieval results", "query", logging.Trim(query, 80), "hits", len(results))
	return results, nil
}

// Chunks returns a copy of every indexed chunk in id order.
func (r *Retriever) Chunks() []document.Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return document.CloneChunks(r.chunks)
}

// Count returns number of chunks indexed.
func (r *Retriever) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// Clear drops all indexed state.
func (r *Retriever) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index != nil {
		if err := r.index.Clear(ctx); err != nil {
			return err
		}
	}
	r.chunks = nil
	return nil
}

// BuildContext joins chunk texts in rank order, each under a provenance header.
func BuildContext(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, res := range results {
		parts = append(parts, fmt.Sprintf("[Chunk %d, dist=%.4f]\n%s", res.Rank, res.Score, res.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}
