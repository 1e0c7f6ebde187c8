package tokenizer

import (
	"strings"
	"sync"
	"unicode"
)

// Tokenizer counts and encodes prompt tokens.
type Tokenizer interface {
	Encode(text string) []int
	CountTokens(text string) int
	DecodeIds(ids []int) string
}

var _ Tokenizer = (*SimpleTokenizer)(nil)

// SimpleTokenizer is a dependency-free approximation used when no model
// encoding is configured.
type SimpleTokenizer struct {
	mu       sync.Mutex
	vocab    map[string]int // token → id
	invVocab map[int]string // id → token
	nextID   int
}

// NewSimpleTokenizer creates new tokenizer with empty vocab.
func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{
		vocab:    make(map[string]int),
		invVocab: make(map[int]string),
		nextID:   1, // reserve 0 for padding if needed
	}
}

// addToken registers token to vocab if not exists
func (t *SimpleTokenizer) addToken(tok string) int {
	if id, ok := t.vocab[tok]; ok {
		return id
	}
	id := t.nextID
	t.vocab[tok] = id
	t.invVocab[id] = tok
	t.nextID++
	return id
}

// Tokenization rules:
// - letters and digits → continuous word
// - Han characters → single rune
// - punctuation → standalone token
func splitTokens(s string) []string {
	var toks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.Is(unicode.Han, r):
			flush()
			toks = append(toks, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			buf.WriteRune(r)
		default:
			flush()
			toks = append(toks, string(r))
		}
	}

	flush()
	return toks
}

func (t *SimpleTokenizer) Encode(text string) []int {
	toks := splitTokens(text)
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int, 0, len(toks))
	for _, tok := range toks {
		ids = append(ids, t.addToken(tok))
	}
	return ids
}

func (t *SimpleTokenizer) CountTokens(text string) int {
	return len(splitTokens(text))
}

func (t *SimpleTokenizer) DecodeIds(ids []int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if tok, ok := t.invVocab[id]; ok {
			parts = append(parts, tok)
		}
	}
	return strings.Join(parts, " ")
}
