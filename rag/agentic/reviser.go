package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/selfrag/agent"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/prompt"
)

// Reviser rewrites an answer using critic feedback and the same context it
// was generated from. It never retrieves.
type Reviser struct {
	gen    agent.Generator
	cfg    *Config
	logger *slog.Logger
}

// NewReviser creates a reviser backed by gen.
func NewReviser(gen agent.Generator, opts ...Option) *Reviser {
	return newReviser(gen, applyOptions(nil, opts))
}

func newReviser(gen agent.Generator, cfg *Config) *Reviser {
	return &Reviser{
		gen:    gen,
		cfg:    cfg,
		logger: logging.WithComponent("reviser"),
	}
}

// Revise returns the improved answer.
func (r *Reviser) Revise(ctx context.Context, answer, feedback, contextText, question string) (string, error) {
	p, err := r.cfg.prompts.Render(prompt.Revise, map[string]any{
		"Question": question,
		"Context":  truncateRunes(contextText, r.cfg.CritiqueContextSize),
		"Answer":   answer,
		"Feedback": feedback,
	})
	if err != nil {
		return "", err
	}
	out, err := r.gen.Generate(ctx, p)
	if err != nil {
		return "", fmt.Errorf("revise answer: %w", err)
	}
	revised := strings.TrimSpace(out)
	r.logger.Debug("answer revised", "before", logging.Trim(answer, 80), "after", logging.Trim(revised, 80))
	return revised, nil
}
