// Package markdown chunks Markdown text along its heading structure.
package markdown

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sweetpotato0/selfrag/rag/chunking"
	"github.com/sweetpotato0/selfrag/rag/document"
)

var _ chunking.Chunker = (*Chunker)(nil)

// Chunker splits markdown documents by heading hierarchy using a goldmark AST.
// Sections longer than the character limit are re-split by a fallback chunker.
type Chunker struct {
	maxHeadingLevel int
	maxCharacters   int
	minCharacters   int
	fallback        chunking.Chunker
	parser          goldmark.Markdown
}

// Option customises the markdown chunker.
type Option func(*Chunker)

// WithMaxHeadingLevel caps which heading level starts a new chunk (default 3).
func WithMaxHeadingLevel(level int) Option {
	return func(c *Chunker) {
		if level > 0 {
			c.maxHeadingLevel = level
		}
	}
}

// WithMaxCharacters enforces the upper bound for section payloads before falling back to the base chunker.
func WithMaxCharacters(chars int) Option {
	return func(c *Chunker) {
		if chars > 0 {
			c.maxCharacters = chars
		}
	}
}

// WithMinCharacters merges adjoining sections until they reach the provided size.
func WithMinCharacters(chars int) Option {
	return func(c *Chunker) {
		if chars >= 0 {
			c.minCharacters = chars
		}
	}
}

// WithFallbackChunker swaps the chunker used when a markdown section exceeds the max character limit.
func WithFallbackChunker(ch chunking.Chunker) Option {
	return func(c *Chunker) {
		if ch != nil {
			c.fallback = ch
		}
	}
}

// New creates a markdown chunker. Defaults: headings up to level 3, sections
// of 240 to 1200 characters, 600/100 window fallback.
func New(opts ...Option) *Chunker {
	ch := &Chunker{
		maxHeadingLevel: 3,
		maxCharacters:   1200,
		minCharacters:   240,
		parser:          goldmark.New(),
		fallback:        chunking.NewWindowChunker(),
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// section is a heading-delimited span of the source in rune offsets.
type section struct {
	start int
	end   int
	title string
}

// Chunk implements chunking.Chunker.
func (c *Chunker) Chunk(ctx context.Context, content string) ([]document.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	runes := []rune(content)
	sections := c.mergeShortSections(runes, c.splitSections(content))

	var chunks []document.Chunk
	for _, sec := range sections {
		payload := string(runes[sec.start:sec.end])
		if strings.TrimSpace(payload) == "" {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(payload)) <= c.maxCharacters {
			chunks = append(chunks, document.Chunk{
				ID:    len(chunks),
				Text:  strings.TrimSpace(payload),
				Start: sec.start,
				End:   sec.end,
			})
			continue
		}

		splits, err := c.fallback.Chunk(ctx, payload)
		if err != nil {
			return nil, err
		}
		for _, split := range splits {
			split.ID = len(chunks)
			split.Start += sec.start
			split.End += sec.start
			chunks = append(chunks, split)
		}
	}
	return chunks, nil
}

func (c *Chunker) splitSections(content string) []section {
	source := []byte(content)
	root := c.parser.Parser().Parse(text.NewReader(source))

	type heading struct {
		start int // byte offset of the heading line
		title string
	}
	var headings []heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > c.maxHeadingLevel {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		headings = append(headings, heading{
			start: lineStart(source, lines.At(0).Start),
			title: strings.TrimSpace(string(h.Text(source))),
		})
		return ast.WalkSkipChildren, nil
	})

	total := utf8.RuneCount(source)
	if len(headings) == 0 {
		return []section{{start: 0, end: total}}
	}

	var sections []section
	first := utf8.RuneCount(source[:headings[0].start])
	if strings.TrimSpace(string(source[:headings[0].start])) != "" {
		sections = append(sections, section{start: 0, end: first})
	}
	for i, h := range headings {
		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].start
		}
		sections = append(sections, section{
			start: utf8.RuneCount(source[:h.start]),
			end:   utf8.RuneCount(source[:end]),
			title: h.title,
		})
	}
	return sections
}

// lineStart moves a heading text offset back to the start of its line so the
// "#" markers stay in the chunk.
func lineStart(source []byte, off int) int {
	for off > 0 && source[off-1] != '\n' {
		off--
	}
	return off
}

// mergeShortSections folds sections shorter than the minimum into the next one.
func (c *Chunker) mergeShortSections(runes []rune, sections []section) []section {
	if c.minCharacters <= 0 || len(sections) == 0 {
		return sections
	}
	merged := make([]section, 0, len(sections))
	var pending *section
	for idx, sec := range sections {
		current := sec
		if pending != nil {
			current = section{start: pending.start, end: sec.end, title: firstNonEmpty(pending.title, sec.title)}
			pending = nil
		}
		size := utf8.RuneCountInString(strings.TrimSpace(string(runes[current.start:current.end])))
		if size < c.minCharacters && idx < len(sections)-1 {
			tmp := current
			pending = &tmp
			continue
		}
		merged = append(merged, current)
	}
	if pending != nil {
		merged = append(merged, *pending)
	}
	return merged
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
