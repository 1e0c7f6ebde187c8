package agentic

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/pkg/telemetry"
)

// RevisionLoop alternates critique and revision until the critic is
// satisfied or the round cap is reached.
type RevisionLoop struct {
	critic    *Critic
	reviser   *Reviser
	maxRounds int
	logger    *slog.Logger
}

// NewRevisionLoop creates a loop with the configured round cap.
func NewRevisionLoop(critic *Critic, reviser *Reviser, opts ...Option) *RevisionLoop {
	return newRevisionLoop(critic, reviser, applyOptions(nil, opts))
}

func newRevisionLoop(critic *Critic, reviser *Reviser, cfg *Config) *RevisionLoop {
	return &RevisionLoop{
		critic:    critic,
		reviser:   reviser,
		maxRounds: cfg.MaxRounds,
		logger:    logging.WithComponent("revision"),
	}
}

// Run evaluates answer, then revises and re-evaluates while the critic asks
// for revision and fewer than maxRounds revisions have been made. Reaching the
// cap is a normal outcome. Errors come only from the generator.
func (l *RevisionLoop) Run(ctx context.Context, answer, contextText, question string) (out *RevisionOutcome, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "selfrag.revise")
	defer func() { telemetry.End(span, err) }()

	current := answer
	report, err := l.critic.Evaluate(ctx, current, contextText, question)
	if err != nil {
		return nil, err
	}
	initial := report
	history := []RevisionRound{{Round: 0, Answer: current, Score: report.Score, Feedback: report.Feedback}}

	rounds := 0
	for report.NeedsRevision && rounds < l.maxRounds {
		rounds++
		current, err = l.reviser.Revise(ctx, current, report.Feedback, contextText, question)
		if err != nil {
			return nil, err
		}
		report, err = l.critic.Evaluate(ctx, current, contextText, question)
		if err != nil {
			return nil, err
		}
		history = append(history, RevisionRound{Round: rounds, Answer: current, Score: report.Score, Feedback: report.Feedback})
		l.logger.Info("revision round", "round", rounds, "score", report.Score)
	}

	first, last := history[0].Score, history[len(history)-1].Score
	span.SetAttributes(
		attribute.Int("selfrag.rounds", rounds),
		attribute.Int("selfrag.score_before", first),
		attribute.Int("selfrag.score_after", last),
	)
	return &RevisionOutcome{
		FinalAnswer: current,
		Rounds:      rounds,
		History:     history,
		Improved:    last > first,
		ScoreBefore: first,
		ScoreAfter:  last,
		Initial:     initial,
		Final:       report,
	}, nil
}
