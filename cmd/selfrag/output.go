package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/selfrag/memory"
	"github.com/sweetpotato0/selfrag/pkg/logging"
	"github.com/sweetpotato0/selfrag/rag/agentic"
)

func printPlan(cmd *cobra.Command, plan *agentic.Plan) {
	cmd.Printf("Query: %s\n", plan.Query)
	complexity := "simple"
	if plan.Complexity.IsComplex {
		complexity = "complex"
	}
	cmd.Printf("Complexity: %s (%s)\n", complexity, plan.Complexity.Reason)
	cmd.Printf("Plan: %s, compound=%t\n", plan.Kind, plan.IsCompound)
	cmd.Printf("Reasoning: %s\n", plan.Reasoning)
	for _, s := range plan.Subtasks() {
		cmd.Printf("  %s\n", s)
	}
}

func printResponse(cmd *cobra.Command, resp *agentic.Response, verbose bool) {
	if verbose {
		printPlan(cmd, resp.Plan)
		cmd.Println()
		for _, step := range resp.Steps {
			printStep(cmd, step)
		}
	}
	if resp.Merged != nil {
		cmd.Printf("Merged %d partial answers.\n", len(resp.Merged.PartialAnswers))
	}
	cmd.Println("Answer:")
	cmd.Println(resp.FinalAnswer)
	cmd.Printf("(score %d/10, %d revision(s))\n", resp.Entry.CriticScore, resp.Entry.Revisions)
}

func printStep(cmd *cobra.Command, step agentic.StepResult) {
	cmd.Printf("== %s\n", step.Subtask)
	for _, r := range step.Results {
		cmd.Printf("  [%d] distance %.4f %s\n", r.Rank, r.Score, logging.Trim(r.Chunk.Text, 80))
		if r.Warning != "" {
			cmd.Printf("      %s\n", r.Warning)
		}
	}
	if c := step.Critique; c != nil {
		cmd.Printf("  Critique: %d/10\n", c.Score)
		for _, note := range []string{c.Notes.Length, c.Notes.NoInfo, c.Notes.Grounding, c.Notes.Relevance} {
			if note != "" {
				cmd.Printf("    - %s\n", note)
			}
		}
	}
	if rev := step.Revision; rev != nil && rev.Rounds > 0 {
		cmd.Printf("  Revised %d time(s): %d -> %d, improved=%t\n", rev.Rounds, rev.ScoreBefore, rev.ScoreAfter, rev.Improved)
	}
	cmd.Println()
}

func printHistory(cmd *cobra.Command, session *memory.Session) {
	entries := session.Entries()
	if len(entries) == 0 {
		cmd.Println(memory.EmptyRecent)
		return
	}
	for _, e := range entries {
		cmd.Printf("#%d %s %s\n", e.Seq, e.Time.Format("15:04:05"), e.Query)
		if len(e.Subtasks) > 1 {
			cmd.Printf("  subtasks: %s\n", strings.Join(e.Subtasks, "; "))
		}
		cmd.Printf("  chunks: %d, score: %d/10, revisions: %d\n", len(e.Chunks), e.CriticScore, e.Revisions)
		cmd.Printf("  answer: %s\n", logging.Trim(e.Answer(), 200))
	}
}
