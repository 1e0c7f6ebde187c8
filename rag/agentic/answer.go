package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/selfrag/agent"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/pkg/telemetry"
	"github.com/sweetpotato0/selfrag/prompt"
)

// AnswerGenerator writes answers grounded in retrieved context and merges
// partial answers for decomposed plans.
type AnswerGenerator struct {
	gen    agent.Generator
	cfg    *Config
	logger *slog.Logger
}

// NewAnswerGenerator creates an answer generator backed by gen.
func NewAnswerGenerator(gen agent.Generator, opts ...Option) *AnswerGenerator {
	return newAnswerGenerator(gen, applyOptions(nil, opts))
}

func newAnswerGenerator(gen agent.Generator, cfg *Config) *AnswerGenerator {
	return &AnswerGenerator{
		gen:    gen,
		cfg:    cfg,
		logger: logging.WithComponent("answer"),
	}
}

// Generate answers question from contextText. Prompts over the configured
// limit are rebuilt with a shortened context.
func (a *AnswerGenerator) Generate(ctx context.Context, question, contextText string) (ans *Answer, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "selfrag.generate")
	defer func() { telemetry.End(span, err) }()

	p, err := a.answerPrompt(question, contextText)
	if err != nil {
		return nil, err
	}
	truncated := false
	if utf8.RuneCountInString(p) > a.cfg.MaxPromptChars {
		short := truncateRunes(contextText, a.cfg.TruncatedContextSize)
		if p, err = a.answerPrompt(question, short); err != nil {
			return nil, err
		}
		truncated = true
		a.logger.Debug("answer prompt truncated", "context_chars", a.cfg.TruncatedContextSize)
	}

	text, err := a.gen.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	ans = &Answer{
		Text:         strings.TrimSpace(text),
		Prompt:       p,
		Model:        a.gen.Model(),
		PromptTokens: a.cfg.tokenizer.CountTokens(p),
		Truncated:    truncated,
	}
	span.SetAttributes(
		attribute.Int("selfrag.prompt_tokens", ans.PromptTokens),
		attribute.Bool("selfrag.truncated", truncated),
	)
	a.logger.Debug("answer generated",
		"question", logging.Trim(question, 80),
		"prompt_tokens", ans.PromptTokens,
		"answer", logging.Trim(ans.Text, 120),
	)
	return ans, nil
}

// Merge combines partial answers into one response. The instruction not to
// add information is carried by the prompt only; the merged text is not
// checked against the partial answers.
func (a *AnswerGenerator) Merge(ctx context.Context, question string, partials []string) (ans *Answer, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "selfrag.generate")
	defer func() { telemetry.End(span, err) }()
	span.SetAttributes(attribute.Int("selfrag.partials", len(partials)))

	lines := make([]string, len(partials))
	for i, part := range partials {
		lines[i] = fmt.Sprintf("Part %d: %s", i+1, part)
	}
	p, err := a.cfg.prompts.Render(prompt.Merge, map[string]any{
		"Parts":    strings.Join(lines, "\n"),
		"Question": question,
	})
	if err != nil {
		return nil, err
	}

	text, err := a.gen.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("merge answers: %w", err)
	}

	a.logger.Debug("merged answer is not grounding-checked", "partials", len(partials))
	return &Answer{
		Text:           strings.TrimSpace(text),
		Prompt:         p,
		Model:          a.gen.Model(),
		PartialAnswers: append([]string(nil), partials...),
		PromptTokens:   a.cfg.tokenizer.CountTokens(p),
	}, nil
}

func (a *AnswerGenerator) answerPrompt(question, contextText string) (string, error) {
	return a.cfg.prompts.Render(prompt.Answer, map[string]any{
		"Context":  contextText,
		"Question": question,
	})
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
