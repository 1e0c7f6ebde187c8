package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/sweetpotato0/selfrag/agent"
	"github.com/sweetpotato0/selfrag/config"
	"github.com/sweetpotato0/selfrag/contrib/chunking/markdown"
	"github.com/sweetpotato0/selfrag/contrib/chunking/token"
	ollamaembed "github.com/sweetpotato0/selfrag/contrib/embedder/ollama"
	openaiembed "github.com/sweetpotato0/selfrag/contrib/embedder/openai"
	"github.com/sweetpotato0/selfrag/contrib/provider"
	"github.com/sweetpotato0/selfrag/contrib/tokenizer/tiktoken"
	"github.com/sweetpotato0/selfrag/contrib/vector/chromem"
	"github.com/sweetpotato0/selfrag/contrib/vector/inmemory"
	"github.com/sweetpotato0/selfrag/middleware"
	"github.com/sweetpotato0/selfrag/middleware/enricher"
	"github.com/sweetpotato0/selfrag/middleware/errorhandler"
	"github.com/sweetpotato0/selfrag/middleware/limiter"
	"github.com/sweetpotato0/selfrag/middleware/logger"
	"github.com/sweetpotato0/selfrag/middleware/validator"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/rag/agentic"
	"github.com/sweetpotato0/selfrag/rag/chunking"
	"github.com/sweetpotato0/selfrag/rag/embedder"
	"github.com/sweetpotato0/selfrag/rag/extract"
	"github.com/sweetpotato0/selfrag/rag/preprocess"
	"github.com/sweetpotato0/selfrag/rag/retriever"
	"github.com/sweetpotato0/selfrag/rag/tokenizer"
	"github.com/sweetpotato0/selfrag/vector"
)

// newServices builds the lazily constructed backends for cfg. Tests replace
// it to run commands against scripted backends.
var newServices = func(cfg *config.Config) *agent.Services {
	gen := cfg.Generation
	return agent.NewServices(
		agent.WithGeneratorFactory(func(ctx context.Context) (agent.Generator, error) {
			return provider.New(ctx, provider.Settings{
				Provider:    gen.Provider,
				Model:       gen.Model,
				APIKey:      gen.APIKey,
				BaseURL:     gen.BaseURL,
				Temperature: gen.Temperature,
				MaxTokens:   gen.MaxTokens,
			})
		}, gen.Model),
		agent.WithEmbedderFactory(func(context.Context) (vector.Embedder, error) {
			return newEmbedder(cfg.Embedding)
		}),
	)
}

// app is one wired pipeline with the settings it was built from.
type app struct {
	cfg      *config.Config
	services *agent.Services
	pipeline *agentic.Pipeline
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	services := newServices(cfg)

	index, err := newIndex(cfg)
	if err != nil {
		return nil, err
	}
	ret := retriever.New(index, services, retriever.WithDistanceThreshold(cfg.Retrieval.DistanceThreshold))

	tok, err := newTokenizer(cfg.Generation)
	if err != nil {
		return nil, err
	}

	opts := []agentic.Option{
		agentic.WithTopK(cfg.Retrieval.TopK),
		agentic.WithMaxRounds(cfg.Revision.MaxRounds),
		agentic.WithChunking(cfg.Chunking.Size, cfg.Chunking.Overlap),
		agentic.WithChunker(newChunker(cfg.Chunking)),
		agentic.WithTokenizer(tok),
	}
	if cfg.Memory.ConversationContext {
		opts = append(opts, agentic.WithConversationContext(cfg.Memory.RecentTurns))
	}

	pipeline, err := agentic.NewPipeline(newGenerator(cfg.Generation, services), ret, opts...)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, services: services, pipeline: pipeline}, nil
}

// ingestFile extracts path, optionally cleans the text and indexes it.
func (a *app) ingestFile(ctx context.Context, path string) (*extract.Result, int, error) {
	doc, err := loadDocument(ctx, a.cfg, path)
	if err != nil {
		return nil, 0, err
	}
	n, err := a.pipeline.Ingest(ctx, doc.Text)
	if err != nil {
		return nil, 0, err
	}
	return doc, n, nil
}

// loadDocument extracts path. Markdown sources are read raw under the markdown
// strategy so their headings survive until chunking.
func loadDocument(ctx context.Context, cfg *config.Config, path string) (*extract.Result, error) {
	read := extract.File
	if cfg.Chunking.Strategy == "markdown" && isMarkdown(path) {
		read = extract.Text
	}
	doc, err := read(ctx, path)
	if err != nil {
		return nil, err
	}
	if cfg.Chunking.Clean {
		doc.Text = preprocess.Preprocess(doc.Text)
	}
	return doc, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func newChunker(c config.ChunkingConfig) chunking.Chunker {
	window := chunking.NewWindowChunker(chunking.WithChunkSize(c.Size), chunking.WithOverlap(c.Overlap))
	switch c.Strategy {
	case "markdown":
		return markdown.New(markdown.WithMaxCharacters(c.Size), markdown.WithFallbackChunker(window))
	case "token":
		return token.New(token.WithMaxTokens(c.Size), token.WithOverlapTokens(c.Overlap))
	}
	return window
}

func newEmbedder(c config.EmbeddingConfig) (vector.Embedder, error) {
	var base vector.Embedder
	switch c.Provider {
	case "ollama":
		e, err := ollamaembed.New(c.BaseURL, c.Model, c.Dimension)
		if err != nil {
			return nil, err
		}
		base = e
	default:
		base = openaiembed.New(c.APIKey, c.BaseURL, openaisdk.EmbeddingModel(c.Model), c.Dimension)
	}
	if c.Normalize {
		base = embedder.NewNormalizing(base)
	}
	return base, nil
}

func newIndex(cfg *config.Config) (vector.Index, error) {
	switch cfg.Index.Backend {
	case "chromem":
		return chromem.New(cfg.Index.Collection)
	case "memory", "":
		return inmemory.NewFlatIndex(indexDimension(cfg.Embedding)), nil
	}
	return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
}

// indexDimension is zero for embedders that return their model's native
// size; the flat index then takes its dimension from the first vector.
func indexDimension(c config.EmbeddingConfig) int {
	if c.Provider == "openai" {
		return c.Dimension
	}
	return 0
}

func newTokenizer(c config.GenerationConfig) (tokenizer.Tokenizer, error) {
	if c.Tokenizer != "tiktoken" {
		return tokenizer.NewSimpleTokenizer(), nil
	}
	tok, err := tiktoken.NewTiktokenTokenizer(c.Model)
	if err == nil {
		return tok, nil
	}
	logging.WithComponent("cli").Debug("no tiktoken encoding for model, using cl100k_base", "model", c.Model)
	return tiktoken.NewTiktokenTokenizer("cl100k_base")
}

// newGenerator puts the generation middleware in front of gen. Each retry
// attempt gets its own timeout.
func newGenerator(c config.GenerationConfig, gen agent.Generator) agent.Generator {
	if c.Timeout > 0 {
		gen = timeoutGenerator{Generator: gen, timeout: c.Timeout}
	}
	return middleware.Wrap(gen,
		enricher.NewRequestID(),
		logger.NewRequestLogger(nil),
		validator.NewInputValidator(validator.NonEmpty),
		errorhandler.NewRetry(uint(c.Retries+1), 500*time.Millisecond),
		limiter.NewRateLimiter(c.RateLimit, 1),
		validator.NewResponseFilter(validator.TrimResponse),
	)
}

// timeoutGenerator bounds every generation call.
type timeoutGenerator struct {
	agent.Generator
	timeout time.Duration
}

func (g timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.Generator.Generate(ctx, prompt)
}
