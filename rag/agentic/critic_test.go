package agentic

import (
	"context"
	"strings"
	"testing"
)

func TestCriticShortUngroundedAnswerNeedsRevision(t *testing.T) {
	report := NewCritic(nil).Score(
		"It uses something.",
		"The methodology uses transformers with attention mechanisms.",
		"What is the methodology?",
	)

	if report.Score != 5 {
		t.Fatalf("expected score 5, got %d (%+v)", report.Score, report.Notes)
	}
	if !report.NeedsRevision {
		t.Fatal("expected answer to need revision")
	}
	if report.Notes.Length != "Very short answer (< 20 chars), probably incomplete" {
		t.Fatalf("unexpected length note %q", report.Notes.Length)
	}
	if report.Notes.Relevance != "Low relevance (0%) - might not be answering the right question" {
		t.Fatalf("unexpected relevance note %q", report.Notes.Relevance)
	}
}

func TestCriticIdenticalAnswerIsFullyGrounded(t *testing.T) {
	text := "The methodology uses transformers with attention mechanisms."
	report := NewCritic(nil).Score(text, text, "Describe the methodology")

	if report.Grounding != 1 {
		t.Fatalf("expected full grounding, got %v", report.Grounding)
	}
	if report.Notes.Grounding != "Good grounding (100%)" {
		t.Fatalf("unexpected grounding note %q", report.Notes.Grounding)
	}
	if report.Score != 10 || report.NeedsRevision {
		t.Fatalf("expected perfect score, got %d", report.Score)
	}
}

func TestCriticScoreBoundsAndThreshold(t *testing.T) {
	tests := []struct {
		answer, context, question string
	}{
		{"", "", ""},
		{"not found", "", "what is the dataset?"},
		{"The context does not contain enough information to answer this.", "alpha beta", "What is the dataset?"},
		{"the a an is are", "the a an", "the"},
		{strings.Repeat("word ", 200), strings.Repeat("word ", 10), "word?"},
		{"Moderate overlap here with transformers only", "transformers attention overlap", "What about overlap?"},
	}
	critic := NewCritic(nil)
	for _, tt := range tests {
		report := critic.Score(tt.answer, tt.context, tt.question)
		if report.Score < 1 || report.Score > 10 {
			t.Errorf("score %d out of range for %q", report.Score, tt.answer)
		}
		if report.NeedsRevision != (report.Score < 7) {
			t.Errorf("needs revision %v inconsistent with score %d", report.NeedsRevision, report.Score)
		}
	}
}

func TestCriticClampsToOne(t *testing.T) {
	report := NewCritic(nil).Score("not found", "", "what is the dataset?")
	if report.Score != 1 {
		t.Fatalf("expected clamped score 1, got %d", report.Score)
	}
	if report.Notes.NoInfo != "Answer says info is missing - might need different retrieval" {
		t.Fatalf("unexpected no-info note %q", report.Notes.NoInfo)
	}
}

func TestCriticStopWordOnlyAnswerHasZeroGrounding(t *testing.T) {
	report := NewCritic(nil).Score("the a an is are", "the a an", "the")
	if report.Grounding != 0 {
		t.Fatalf("expected zero grounding, got %v", report.Grounding)
	}
	if report.Notes.Grounding != "Low grounding (0%) - possible hallucination" {
		t.Fatalf("unexpected grounding note %q", report.Notes.Grounding)
	}
}

func TestCriticModerateGrounding(t *testing.T) {
	// answer words: uses, cnn, transfer -> 1 of 3 in context
	report := NewCritic(nil).Score("uses cnn transfer", "the model uses attention", "what model")
	if report.Notes.Grounding != "Moderate grounding (33%)" {
		t.Fatalf("unexpected grounding note %q", report.Notes.Grounding)
	}
}

func TestCriticEvaluateAddsLLMFeedback(t *testing.T) {
	gen := newScriptedGenerator()
	gen.critique = "  Missing detail about attention.  "
	critic := NewCritic(gen)

	contextText := strings.Repeat("c", 800)
	report, err := critic.Evaluate(context.Background(), "It uses something.", contextText, "What is the methodology?")
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if report.LLMFeedback != "Missing detail about attention." {
		t.Fatalf("unexpected llm feedback %q", report.LLMFeedback)
	}

	want := strings.Join([]string{
		"  - length: Very short answer (< 20 chars), probably incomplete",
		"  - no_info: Doesn't flag missing info",
		"  - grounding: Low grounding (0%) - possible hallucination",
		"  - relevance: Low relevance (0%) - might not be answering the right question",
		"  - llm says: Missing detail about attention.",
	}, "\n")
	if report.Feedback != want {
		t.Fatalf("unexpected feedback:\n%s", report.Feedback)
	}

	p := gen.prompts["critique"][0]
	if !strings.Contains(p, "Context: "+strings.Repeat("c", 500)+"\n\nAnswer:") {
		t.Fatal("critique prompt should carry the first 500 context characters")
	}
	if report.Score != NewCritic(nil).Score("It uses something.", contextText, "What is the methodology?").Score {
		t.Fatal("llm feedback must not change the score")
	}
}
