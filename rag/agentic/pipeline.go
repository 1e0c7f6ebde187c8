package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/selfrag/agent"
	selfragerrors "github.com/sweetpotato0/selfrag/errors"
	"github.com/sweetpotato0/selfrag/memory"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/pkg/telemetry"
	"github.com/sweetpotato0/selfrag/rag/retriever"
)

// Pipeline wires the self-reflective RAG workflow together:
//  1. plan the query into retrieval steps
//  2. per step: retrieve, answer, critique and revise
//  3. merge step answers when there is more than one
//  4. record the interaction in the session
type Pipeline struct {
	cfg       *Config
	planner   *Planner
	retriever *retriever.Retriever
	answers   *AnswerGenerator
	critic    *Critic
	reviser   *Reviser
	loop      *RevisionLoop
	session   *memory.Session
	logger    *slog.Logger
}

// NewPipeline creates a fully wired pipeline.
func NewPipeline(gen agent.Generator, ret *retriever.Retriever, opts ...Option) (*Pipeline, error) {
	if gen == nil {
		return nil, fmt.Errorf("%w: generator is required", selfragerrors.ErrInvalidInput)
	}
	if ret == nil {
		return nil, fmt.Errorf("%w: retriever is required", selfragerrors.ErrInvalidInput)
	}
	cfg := applyOptions(nil, opts)

	critic := newCritic(gen, cfg)
	reviser := newReviser(gen, cfg)
	p := &Pipeline{
		cfg:       cfg,
		planner:   NewPlanner(),
		retriever: ret,
		answers:   newAnswerGenerator(gen, cfg),
		critic:    critic,
		reviser:   reviser,
		loop:      newRevisionLoop(critic, reviser, cfg),
		session:   cfg.session,
		logger:    logging.WithComponent("pipeline").With("pipeline", cfg.Name),
	}
	p.logger.Info("pipeline initialised",
		"top_k", cfg.TopK,
		"max_rounds", cfg.MaxRounds,
		"model", gen.Model(),
		"conversation_context", cfg.ConversationContext,
	)
	return p, nil
}

// Memory returns the session the pipeline records into.
func (p *Pipeline) Memory() *memory.Session {
	return p.session
}

// Planner returns the pipeline's planner.
func (p *Pipeline) Planner() *Planner {
	return p.planner
}

// Retriever returns the pipeline's retriever.
func (p *Pipeline) Retriever() *retriever.Retriever {
	return p.retriever
}

// Ingest chunks text and indexes the chunks. It returns the number of chunks
// added.
func (p *Pipeline) Ingest(ctx context.Context, text string) (int, error) {
	chunks, err := p.cfg.chunker.Chunk(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("chunk text: %w", err)
	}
	if len(chunks) == 0 {
		p.logger.Warn("ingest produced no chunks")
		return 0, nil
	}
	if err := p.retriever.Index(ctx, chunks); err != nil {
		return 0, err
	}
	p.logger.Info("text ingested", "chunks", len(chunks), "indexed", p.retriever.Count())
	return len(chunks), nil
}

// Run answers query and records the interaction.
func (p *Pipeline) Run(ctx context.Context, query string) (resp *Response, err error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", selfragerrors.ErrInvalidInput)
	}
	ctx, span := telemetry.Tracer().Start(ctx, "selfrag.run")
	defer func() { telemetry.End(span, err) }()

	p.logger.Info("pipeline run started", "query", logging.Trim(query, 120))

	plan := p.planner.Plan(query)
	span.SetAttributes(
		attribute.String("selfrag.plan_kind", plan.Kind.String()),
		attribute.Int("selfrag.steps", len(plan.Steps)),
	)
	p.logger.Debug("plan generated", "kind", plan.Kind.String(), "steps", len(plan.Steps), "reasoning", plan.Reasoning)

	conversation := p.conversation()
	steps := make([]StepResult, 0, len(plan.Steps))
	for _, sub := range plan.Steps {
		step, err := p.runStep(ctx, plan, sub, conversation)
		if err != nil {
			p.logger.Error("step failed", "subtask", sub.Index, "error", err)
			return nil, err
		}
		steps = append(steps, *step)
	}

	resp = &Response{Query: query, Plan: plan, Steps: steps}
	if len(steps) > 1 {
		partials := make([]string, len(steps))
		for i, s := range steps {
			partials[i] = s.Revision.FinalAnswer
		}
		merged, err := p.answers.Merge(ctx, query, partials)
		if err != nil {
			return nil, err
		}
		resp.Merged = merged
		resp.FinalAnswer = merged.Text
	} else {
		resp.FinalAnswer = steps[0].Revision.FinalAnswer
	}

	resp.Entry = p.session.Record(newEntry(plan, steps, resp.FinalAnswer))
	p.logger.Info("pipeline run completed",
		"query", logging.Trim(query, 120),
		"steps", len(steps),
		"merged", resp.Merged != nil,
		"score", resp.Entry.CriticScore,
		"revisions", resp.Entry.Revisions,
	)
	return resp, nil
}

func (p *Pipeline) runStep(ctx context.Context, plan *Plan, sub Subtask, conversation string) (*StepResult, error) {
	question := plan.Query
	if plan.Kind == Decomposed {
		question = sub.Text
	}

	results, err := p.retrieve(ctx, sub.Text)
	if err != nil {
		return nil, err
	}
	contextText := retriever.BuildContext(results)

	// History goes after the retrieved chunks so prompt truncation cuts it first.
	answerContext := contextText
	if conversation != "" {
		answerContext = contextText + "\n\nPrevious conversation:\n" + conversation
	}
	answer, err := p.answers.Generate(ctx, question, answerContext)
	if err != nil {
		return nil, err
	}

	outcome, err := p.loop.Run(ctx, answer.Text, contextText, question)
	if err != nil {
		return nil, err
	}
	return &StepResult{
		Subtask:  sub,
		Question: question,
		Results:  results,
		Context:  contextText,
		Answer:   answer,
		Critique: outcome.Initial,
		Revision: outcome,
	}, nil
}

func (p *Pipeline) retrieve(ctx context.Context, query string) (results []retriever.Result, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "selfrag.retrieve")
	defer func() { telemetry.End(span, err) }()

	results, err = p.retriever.Retrieve(ctx, query, p.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	span.SetAttributes(attribute.Int("selfrag.hits", len(results)))
	for _, r := range results {
		if r.Warning != "" {
			p.logger.Warn("low similarity match", "rank", r.Rank, "score", r.Score)
		}
	}
	return results, nil
}

func (p *Pipeline) conversation() string {
	if !p.cfg.ConversationContext || p.session.Count() == 0 {
		return ""
	}
	return p.session.Recent(p.cfg.RecentTurns)
}

// newEntry aggregates step results into one memory entry. Multi-step runs
// keep the lowest final score and the total number of revisions.
func newEntry(plan *Plan, steps []StepResult, final string) memory.Entry {
	entry := memory.Entry{
		Query:       plan.Query,
		Subtasks:    plan.Subtasks(),
		FinalAnswer: final,
	}
	firsts := make([]string, len(steps))
	feedback := make([]string, len(steps))
	for i, s := range steps {
		entry.Chunks = append(entry.Chunks, s.Results...)
		firsts[i] = s.Answer.Text
		feedback[i] = s.Revision.Final.Feedback
		entry.Revisions += s.Revision.Rounds
		if i == 0 || s.Revision.ScoreAfter < entry.CriticScore {
			entry.CriticScore = s.Revision.ScoreAfter
		}
	}
	entry.FirstAnswer = strings.Join(firsts, "\n\n")
	entry.Feedback = strings.Join(feedback, "\n\n")
	return entry
}
