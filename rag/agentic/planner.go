package agentic

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const synthesisStep = "Combine and summarize findings."

// complexPhrases are checked in order; the first hit decides the reason.
var complexPhrases = []string{
	"compare",
	"difference",
	"versus",
	"advantages and disadvantages",
	"limitations",
	"pros and cons",
	"contrast",
}

var compoundWords = []string{
	"and", "compare", "comparison", "difference", "differences",
	"versus", "vs", "contrast", "advantages and disadvantages",
}

type sectionIntent struct {
	keyword string
	intent  string
}

// sectionMap maps query keywords to the document section they target.
var sectionMap = []sectionIntent{
	{"methodology", "Find info about the methodology or methods used."},
	{"method", "Find info about the methodology or methods used."},
	{"approach", "Find info about the approach taken."},
	{"limitation", "Find info about the limitations."},
	{"limitations", "Find info about the limitations."},
	{"result", "Find info about the results."},
	{"results", "Find info about the results."},
	{"finding", "Find the key findings."},
	{"findings", "Find the key findings."},
	{"contribution", "Find the contributions of this work."},
	{"contributions", "Find the contributions of this work."},
	{"conclusion", "Find the conclusions."},
	{"abstract", "Find the abstract or summary."},
	{"introduction", "Find information from the introduction."},
	{"related work", "Find info about related work."},
	{"future work", "Find info about future work suggestions."},
	{"evaluation", "Find info about how they evaluated their work."},
	{"experiment", "Find info about the experiments."},
	{"dataset", "Find info about the dataset used."},
}

var (
	andWord        = regexp.MustCompile(`\band\b`)
	partSeparators = regexp.MustCompile(`\b(?:and|vs\.?|versus|compared?\s+to|contrast\s+with)\b`)
	compoundRegexp = compileWords(compoundWords)
)

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// Planner decides whether a query is answered with one retrieval or split
// into focused retrievals followed by a merge. It is stateless and safe for
// concurrent use.
type Planner struct{}

// NewPlanner creates a planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// CheckComplexity classifies a query as simple or complex.
func (p *Planner) CheckComplexity(query string) Complexity {
	q := strings.ToLower(strings.TrimSpace(query))

	for _, phrase := range complexPhrases {
		if strings.Contains(q, phrase) {
			return Complexity{
				IsComplex: true,
				Reason:    fmt.Sprintf("Found '%s' - query likely needs multiple retrieval steps", phrase),
			}
		}
	}

	if andWord.MatchString(q) {
		parts := andWord.Split(q, -1)
		if len(parts) >= 2 && allLongerThan(parts, 5) {
			return Complexity{IsComplex: true, Reason: "Query uses 'and' to connect multiple topics"}
		}
	}

	return Complexity{IsComplex: false, Reason: "Simple single-topic query"}
}

// Plan builds the retrieval plan for query. It never fails; an empty query
// yields a single passthrough step.
func (p *Planner) Plan(query string) *Plan {
	lower := strings.ToLower(strings.TrimSpace(query))
	plan := &Plan{
		Query:      query,
		Complexity: p.CheckComplexity(query),
	}

	if !plan.Complexity.IsComplex {
		intents := matchSections(lower)
		if len(intents) > 0 {
			plan.Kind = Sectioned
			plan.Steps = numbered(intents)
			plan.Reasoning = fmt.Sprintf("Simple query targeting %d section(s).", len(intents))
		} else {
			plan.passthrough(query, "Simple query, no decomposition needed.")
		}
		plan.IsCompound = len(plan.Steps) > 1
		return plan
	}

	compound := hasCompoundWord(lower)
	if !compound {
		plan.passthrough(query, "Marked complex but single-topic.")
		plan.IsCompound = false
		return plan
	}

	parts := splitParts(lower)
	if len(parts) > 1 {
		for i := range parts {
			parts[i] = capitalize(parts[i])
		}
		plan.Kind = Decomposed
		plan.Steps = numbered(parts)
		plan.Synthesis = &Subtask{Index: len(parts) + 1, Text: synthesisStep}
		plan.Reasoning = fmt.Sprintf("Split into %d parts + synthesis step.", len(parts))
	} else {
		plan.passthrough(query, "Detected compound keyword but couldn't split meaningfully.")
	}
	plan.IsCompound = true
	return plan
}

func (p *Plan) passthrough(query, reasoning string) {
	p.Kind = Passthrough
	p.Steps = []Subtask{{Index: 1, Text: query}}
	p.Reasoning = reasoning
}

func matchSections(lower string) []string {
	var intents []string
	seen := make(map[string]bool)
	for _, s := range sectionMap {
		if strings.Contains(lower, s.keyword) && !seen[s.intent] {
			seen[s.intent] = true
			intents = append(intents, s.intent)
		}
	}
	return intents
}

func hasCompoundWord(lower string) bool {
	for _, re := range compoundRegexp {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func splitParts(lower string) []string {
	var parts []string
	for _, part := range partSeparators.Split(lower, -1) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func numbered(texts []string) []Subtask {
	steps := make([]Subtask, len(texts))
	for i, t := range texts {
		steps[i] = Subtask{Index: i + 1, Text: t}
	}
	return steps
}

func allLongerThan(parts []string, n int) bool {
	for _, part := range parts {
		if utf8.RuneCountInString(strings.TrimSpace(part)) <= n {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
