package agentic

import (
	"context"
	"strings"
	"sync"

	"github.com/sweetpotato0/selfrag/rag/document"
)

// scriptedGenerator answers by prompt type so tests can count calls per stage.
type scriptedGenerator struct {
	mu        sync.Mutex
	answerFn  func(prompt string) string
	merge     string
	critique  string
	revisions []string
	err       error
	calls     map[string]int
	prompts   map[string][]string
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		critique: "Looks fine.",
		calls:    make(map[string]int),
		prompts:  make(map[string][]string),
	}
}

func promptKind(p string) string {
	switch {
	case strings.HasPrefix(p, "Answer the following"):
		return "answer"
	case strings.HasPrefix(p, "Combine these partial answers"):
		return "merge"
	case strings.HasPrefix(p, "Evaluate this answer"):
		return "critique"
	case strings.HasPrefix(p, "Improve this answer"):
		return "revise"
	default:
		return "unknown"
	}
}

func (g *scriptedGenerator) Generate(_ context.Context, p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	kind := promptKind(p)
	g.calls[kind]++
	g.prompts[kind] = append(g.prompts[kind], p)
	if g.err != nil {
		return "", g.err
	}

	switch kind {
	case "answer":
		if g.answerFn != nil {
			return g.answerFn(p), nil
		}
		return "An answer.", nil
	case "merge":
		return g.merge, nil
	case "critique":
		return g.critique, nil
	case "revise":
		n := g.calls[kind] - 1
		if n < len(g.revisions) {
			return g.revisions[n], nil
		}
		return "Revised.", nil
	}
	return "", nil
}

func (g *scriptedGenerator) Model() string { return "scripted" }

func (g *scriptedGenerator) count(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

// echoContext returns the first retrieved chunk's text from an answer prompt.
func echoContext(p string) string {
	start := strings.Index(p, "Context:\n")
	end := strings.Index(p, "\n\nQuestion:")
	if start < 0 || end < 0 {
		return ""
	}
	block := p[start+len("Context:\n") : end]
	if i := strings.Index(block, "[Chunk 1,"); i >= 0 {
		block = block[i:]
	}
	lines := strings.SplitN(block, "\n", 3)
	if len(lines) < 2 {
		return ""
	}
	return lines[1]
}

type keywordEmbedder struct{}

var keywordSpace = []string{"methodology", "limitation", "result", "dataset"}

func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(keywordSpace))
	lower := strings.ToLower(text)
	for idx, kw := range keywordSpace {
		if strings.Contains(lower, kw) {
			vec[idx] = 1
		}
	}
	return vec, nil
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := k.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (k *keywordEmbedder) Dimension() int { return len(keywordSpace) }

// lineChunker emits one chunk per non-empty line.
type lineChunker struct{}

func (lineChunker) Chunk(_ context.Context, text string) ([]document.Chunk, error) {
	var out []document.Chunk
	pos := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, document.Chunk{ID: len(out), Text: line, Start: pos, End: pos + len(line)})
		}
		pos += len(line) + 1
	}
	return out, nil
}
