// Package agent holds the generation interface and the shared service handle
// through which every pipeline component reaches the generator and embedder.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	selfragerrors "github.com/sweetpotato0/selfrag/errors"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/vector"
)

// Generator is a single-turn text generation service. It holds no
// conversation state; everything the model needs is in the prompt.
type Generator interface {
	// Generate returns the model's completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model identifies the model producing completions.
	Model() string
}

// GeneratorFactory builds a generator on first use.
type GeneratorFactory func(ctx context.Context) (Generator, error)

// EmbedderFactory builds an embedder on first use.
type EmbedderFactory func(ctx context.Context) (vector.Embedder, error)

var (
	_ Generator       = (*Services)(nil)
	_ vector.Embedder = (*Services)(nil)
)

// Services is the process-wide handle to the generation and embedding
// backends. Backends are constructed lazily on first use and reused for every
// later call; construction errors are cached and reported on every call.
type Services struct {
	newGenerator GeneratorFactory
	newEmbedder  EmbedderFactory
	modelHint    string
	logger       *slog.Logger

	mu      sync.RWMutex
	genOnce sync.Once
	gen     Generator
	genErr  error

	embOnce sync.Once
	emb     vector.Embedder
	embErr  error
}

// Option is a function that configures Services
type Option func(*Services)

// WithGenerator uses an already constructed generator.
func WithGenerator(g Generator) Option {
	return func(s *Services) {
		if g == nil {
			return
		}
		s.newGenerator = func(context.Context) (Generator, error) { return g, nil }
		s.modelHint = g.Model()
	}
}

// WithGeneratorFactory defers generator construction until first use. model
// is reported by Model before the generator exists.
func WithGeneratorFactory(f GeneratorFactory, model string) Option {
	return func(s *Services) {
		if f != nil {
			s.newGenerator = f
			s.modelHint = model
		}
	}
}

// WithEmbedder uses an already constructed embedder.
func WithEmbedder(e vector.Embedder) Option {
	return func(s *Services) {
		if e != nil {
			s.newEmbedder = func(context.Context) (vector.Embedder, error) { return e, nil }
		}
	}
}

// WithEmbedderFactory defers embedder construction until first use.
func WithEmbedderFactory(f EmbedderFactory) Option {
	return func(s *Services) {
		if f != nil {
			s.newEmbedder = f
		}
	}
}

// NewServices creates a service handle.
func NewServices(opts ...Option) *Services {
	s := &Services{logger: logging.WithComponent("services")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generator returns the shared generator, constructing it on first call.
func (s *Services) Generator(ctx context.Context) (Generator, error) {
	s.genOnce.Do(func() {
		if s.newGenerator == nil {
			s.genErr = fmt.Errorf("%w: no generator configured", selfragerrors.ErrServiceUnavailable)
			return
		}
		s.logger.Info("initialising generator", "model", s.modelHint)
		g, err := s.newGenerator(ctx)
		if err == nil && g == nil {
			err = fmt.Errorf("generator factory returned nil")
		}
		if err != nil {
			s.genErr = fmt.Errorf("%w: generator: %v", selfragerrors.ErrServiceUnavailable, err)
			return
		}
		s.mu.Lock()
		s.gen = g
		s.mu.Unlock()
	})
	return s.gen, s.genErr
}

// Embedder returns the shared embedder, constructing it on first call.
func (s *Services) Embedder(ctx context.Context) (vector.Embedder, error) {
	s.embOnce.Do(func() {
		if s.newEmbedder == nil {
			s.embErr = fmt.Errorf("%w: no embedder configured", selfragerrors.ErrServiceUnavailable)
			return
		}
		s.logger.Info("initialising embedder")
		e, err := s.newEmbedder(ctx)
		if err == nil && e == nil {
			err = fmt.Errorf("embedder factory returned nil")
		}
		if err != nil {
			s.embErr = fmt.Errorf("%w: embedder: %v", selfragerrors.ErrServiceUnavailable, err)
			return
		}
		s.mu.Lock()
		s.emb = e
		s.mu.Unlock()
	})
	return s.emb, s.embErr
}

// Warm constructs both backends so availability problems surface at startup.
func (s *Services) Warm(ctx context.Context) error {
	if _, err := s.Generator(ctx); err != nil {
		return err
	}
	_, err := s.Embedder(ctx)
	return err
}

// Generate implements Generator on the shared generator.
func (s *Services) Generate(ctx context.Context, prompt string) (string, error) {
	g, err := s.Generator(ctx)
	if err != nil {
		return "", err
	}
	return g.Generate(ctx, prompt)
}

// Model reports the generator's model, or the configured name before first use.
func (s *Services) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gen != nil {
		return s.gen.Model()
	}
	return s.modelHint
}

// Embed implements vector.Embedder on the shared embedder.
func (s *Services) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := s.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, text)
}

// EmbedBatch implements vector.Embedder on the shared embedder.
func (s *Services) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := s.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	return e.EmbedBatch(ctx, texts)
}

// Dimension reports the embedder's dimension, or 0 before first use.
func (s *Services) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.emb != nil {
		return s.emb.Dimension()
	}
	return 0
}
