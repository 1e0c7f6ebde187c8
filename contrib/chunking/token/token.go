// Package token chunks text into fixed windows of approximate tokens.
package token

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/selfrag/rag/chunking"
	"github.com/sweetpotato0/selfrag/rag/document"
)

var _ chunking.Chunker = (*Chunker)(nil)

var tokenRegex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+|[^\s]`)

// Chunker approximates token-aware chunking without depending on provider-specific codecs.
// It keeps whitespace intact while enforcing token windows and overlaps.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Option customises the token chunker.
type Option func(*Chunker)

// WithMaxTokens sets the maximum allowed tokens per chunk (default 256).
func WithMaxTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.maxTokens = tokens
		}
	}
}

// WithOverlapTokens sets how many tokens are shared between consecutive chunks.
func WithOverlapTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
	}
}

// New creates a new token-aware chunker.
func New(opts ...Option) *Chunker {
	ch := &Chunker{
		maxTokens:     256,
		overlapTokens: 32,
	}
	for _, opt := range opts {
		opt(ch)
	}
	if ch.overlapTokens >= ch.maxTokens {
		ch.overlapTokens = 0
	}
	return ch
}

type segment struct {
	start  int // byte offsets into the source
	end    int
	counts bool
}

// Chunk implements chunking.Chunker. Chunk offsets are in characters and the
// chunk text is exactly the source between them.
func (c *Chunker) Chunk(ctx context.Context, content string) ([]document.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	segments, tokenSegments := buildSegments(content)

	var chunks []document.Chunk
	tokenStart := 0
	for tokenStart < len(tokenSegments) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tokenEnd := min(tokenStart+c.maxTokens, len(tokenSegments))
		startSegment := tokenSegments[tokenStart]
		if startSegment > 0 && !segments[startSegment-1].counts {
			startSegment--
		}
		endSegment := tokenSegments[tokenEnd-1] + 1
		for endSegment < len(segments) && !segments[endSegment].counts {
			endSegment++
		}

		startByte := segments[startSegment].start
		endByte := segments[endSegment-1].end
		start := utf8.RuneCountInString(content[:startByte])
		chunks = append(chunks, document.Chunk{
			ID:    len(chunks),
			Text:  content[startByte:endByte],
			Start: start,
			End:   start + utf8.RuneCountInString(content[startByte:endByte]),
		})

		if tokenEnd == len(tokenSegments) {
			break
		}
		tokenStart = max(tokenEnd-c.overlapTokens, 0)
	}
	return chunks, nil
}

func buildSegments(text string) ([]segment, []int) {
	var segments []segment
	var tokenSegments []int
	prevEnd := 0
	for _, loc := range tokenRegex.FindAllStringIndex(text, -1) {
		if loc[0] > prevEnd {
			segments = append(segments, segment{start: prevEnd, end: loc[0]})
		}
		segments = append(segments, segment{start: loc[0], end: loc[1], counts: true})
		tokenSegments = append(tokenSegments, len(segments)-1)
		prevEnd = loc[1]
	}
	if prevEnd < len(text) {
		segments = append(segments, segment{start: prevEnd, end: len(text)})
	}
	return segments, tokenSegments
}
