package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/selfrag/agent"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/prompt"
)

var noInfoPhrases = []string{
	"does not contain",
	"not found",
	"no information",
	"cannot answer",
	"not mentioned",
	"not available",
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "and": {},
	"or": {}, "it": {}, "this": {}, "that": {}, "with": {}, "by": {},
}

// Critic scores answers with rule-based checks and asks the generator for
// qualitative feedback. Only the rules affect the score.
type Critic struct {
	gen    agent.Generator
	cfg    *Config
	logger *slog.Logger
}

// NewCritic creates a critic. gen may be nil when only Score is used.
func NewCritic(gen agent.Generator, opts ...Option) *Critic {
	return newCritic(gen, applyOptions(nil, opts))
}

func newCritic(gen agent.Generator, cfg *Config) *Critic {
	return &Critic{
		gen:    gen,
		cfg:    cfg,
		logger: logging.WithComponent("critic"),
	}
}

// Score runs the rule-based checks only. The score starts at 10, each failed
// check deducts points, and the result is clamped to [1, 10].
func (c *Critic) Score(answer, contextText, question string) *CritiqueReport {
	score := 10
	var notes CritiqueNotes

	switch n := utf8.RuneCountInString(answer); {
	case n < 20:
		notes.Length = "Very short answer (< 20 chars), probably incomplete"
		score -= 3
	case n < 50:
		notes.Length = "Kinda short, might be missing detail"
		score--
	default:
		notes.Length = "Length seems fine"
	}

	lower := strings.ToLower(answer)
	notes.NoInfo = "Doesn't flag missing info"
	for _, phrase := range noInfoPhrases {
		if strings.Contains(lower, phrase) {
			notes.NoInfo = "Answer says info is missing - might need different retrieval"
			score -= 2
			break
		}
	}

	answerWords := wordSet(answer)
	grounding := overlapRatio(withoutStopWords(answerWords), withoutStopWords(wordSet(contextText)), false)
	switch {
	case grounding < 0.3:
		notes.Grounding = fmt.Sprintf("Low grounding (%s) - possible hallucination", percent(grounding))
		score -= 3
	case grounding < 0.5:
		notes.Grounding = fmt.Sprintf("Moderate grounding (%s)", percent(grounding))
		score--
	default:
		notes.Grounding = fmt.Sprintf("Good grounding (%s)", percent(grounding))
	}

	relevance := overlapRatio(withoutStopWords(wordSet(question)), answerWords, true)
	if relevance < 0.3 {
		notes.Relevance = fmt.Sprintf("Low relevance (%s) - might not be answering the right question", percent(relevance))
		score -= 2
	} else {
		notes.Relevance = fmt.Sprintf("Relevance okay (%s)", percent(relevance))
	}

	score = max(1, min(10, score))
	report := &CritiqueReport{
		Score:         score,
		Notes:         notes,
		NeedsRevision: score < RevisionThreshold,
		Grounding:     grounding,
		Relevance:     relevance,
	}
	report.Feedback = report.feedback()
	return report
}

// Evaluate scores the answer and attaches the generator's evaluation.
func (c *Critic) Evaluate(ctx context.Context, answer, contextText, question string) (*CritiqueReport, error) {
	if c.gen == nil {
		return nil, fmt.Errorf("critic: generator is not configured")
	}
	report := c.Score(answer, contextText, question)

	p, err := c.cfg.prompts.Render(prompt.Critique, map[string]any{
		"Question": question,
		"Context":  truncateRunes(contextText, c.cfg.CritiqueContextSize),
		"Answer":   answer,
	})
	if err != nil {
		return nil, err
	}
	out, err := c.gen.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("critic evaluation: %w", err)
	}

	report.LLMFeedback = strings.TrimSpace(out)
	report.Feedback = report.feedback()
	c.logger.Debug("answer evaluated",
		"score", report.Score,
		"grounding", report.Grounding,
		"relevance", report.Relevance,
		"needs_revision", report.NeedsRevision,
	)
	return report, nil
}

func (r *CritiqueReport) feedback() string {
	lines := []string{
		"  - length: " + r.Notes.Length,
		"  - no_info: " + r.Notes.NoInfo,
		"  - grounding: " + r.Notes.Grounding,
		"  - relevance: " + r.Notes.Relevance,
	}
	if r.LLMFeedback != "" {
		lines = append(lines, "  - llm says: "+r.LLMFeedback)
	}
	return strings.Join(lines, "\n")
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func withoutStopWords(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for w := range set {
		if _, stop := stopWords[w]; !stop {
			out[w] = struct{}{}
		}
	}
	return out
}

// overlapRatio returns |a ∩ b| / |a|. An empty a yields 0, or 0 over 1 when
// floorOne is set.
func overlapRatio(a, b map[string]struct{}, floorOne bool) float64 {
	denom := len(a)
	if floorOne {
		denom = max(denom, 1)
	}
	if denom == 0 {
		return 0
	}
	hits := 0
	for w := range a {
		if _, ok := b[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(denom)
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
