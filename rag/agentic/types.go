package agentic

import (
	"fmt"

	"github.com/sweetpotato0/selfrag/memory"
	"github.com/sweetpotato0/selfrag/rag/retriever"
)

// PlanKind tags how a query was decomposed.
type PlanKind int

const (
	// Passthrough retrieves once with the original query.
	Passthrough PlanKind = iota
	// Sectioned retrieves once per targeted document section.
	Sectioned
	// Decomposed retrieves once per query part and then merges the answers.
	Decomposed
)

func (k PlanKind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case Sectioned:
		return "sectioned"
	case Decomposed:
		return "decomposed"
	default:
		return fmt.Sprintf("PlanKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k PlanKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Complexity is the planner's first-pass classification of a query.
type Complexity struct {
	IsComplex bool   `json:"is_complex"`
	Reason    string `json:"reason"`
}

// Subtask is one numbered step of a plan.
type Subtask struct {
	Index int    `json:"index"` // 1-based
	Text  string `json:"text"`
}

func (s Subtask) String() string {
	return fmt.Sprintf("Subtask %d: %s", s.Index, s.Text)
}

// Plan captures how a query is answered: which retrieval steps run and
// whether their answers are merged.
type Plan struct {
	Query      string     `json:"query"`
	Complexity Complexity `json:"complexity"`
	Kind       PlanKind   `json:"kind"`
	Steps      []Subtask  `json:"steps"`               // retrieval steps, never empty
	Synthesis  *Subtask   `json:"synthesis,omitempty"` // set only for Decomposed plans
	IsCompound bool       `json:"is_compound"`
	Reasoning  string     `json:"reasoning"`
}

// Subtasks renders every step, including the synthesis step, as
// "Subtask N: text".
func (p *Plan) Subtasks() []string {
	out := make([]string, 0, len(p.Steps)+1)
	for _, s := range p.Steps {
		out = append(out, s.String())
	}
	if p.Synthesis != nil {
		out = append(out, p.Synthesis.String())
	}
	return out
}

// Answer is one generator output together with the prompt that produced it.
type Answer struct {
	Text           string   `json:"text"`
	Prompt         string   `json:"prompt"`
	Model          string   `json:"model,omitempty"`
	PartialAnswers []string `json:"partial_answers,omitempty"` // merge only
	PromptTokens   int      `json:"prompt_tokens"`
	Truncated      bool     `json:"truncated,omitempty"`
}

// CritiqueNotes holds one note per heuristic check.
type CritiqueNotes struct {
	Length    string `json:"length"`
	NoInfo    string `json:"no_info"`
	Grounding string `json:"grounding"`
	Relevance string `json:"relevance"`
}

// CritiqueReport is the critic's verdict on one answer.
type CritiqueReport struct {
	Score         int           `json:"score"` // 1..10
	Notes         CritiqueNotes `json:"notes"`
	LLMFeedback   string        `json:"llm_feedback,omitempty"`
	Feedback      string        `json:"feedback"`
	NeedsRevision bool          `json:"needs_revision"`
	Grounding     float64       `json:"grounding"`
	Relevance     float64       `json:"relevance"`
}

// RevisionRound records one evaluation inside the revision loop.
type RevisionRound struct {
	Round    int    `json:"round"` // 0 is the initial answer
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// RevisionOutcome is the terminal state of the revision loop.
type RevisionOutcome struct {
	FinalAnswer string          `json:"final_answer"`
	Rounds      int             `json:"rounds"`
	History     []RevisionRound `json:"history"`
	Improved    bool            `json:"improved"`
	ScoreBefore int             `json:"score_before"`
	ScoreAfter  int             `json:"score_after"`
	Initial     *CritiqueReport `json:"initial"`
	Final       *CritiqueReport `json:"final"`
}

// StepResult is everything produced for one retrieval step.
type StepResult struct {
	Subtask  Subtask            `json:"subtask"`
	Question string             `json:"question"`
	Results  []retriever.Result `json:"results"`
	Context  string             `json:"context"`
	Answer   *Answer            `json:"answer"`
	Critique *CritiqueReport    `json:"critique"` // first evaluation
	Revision *RevisionOutcome   `json:"revision"`
}

// Response captures the structured pipeline result that applications consume.
type Response struct {
	Query       string       `json:"query"`
	Plan        *Plan        `json:"plan"`
	Steps       []StepResult `json:"steps"`
	Merged      *Answer      `json:"merged,omitempty"`
	FinalAnswer string       `json:"final_answer"`
	Entry       memory.Entry `json:"entry"`
}
