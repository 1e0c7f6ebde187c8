package chunking

import (
	"context"
	"strings"

	"github.com/sweetpotato0/selfrag/rag/document"
)

const (
	// DefaultChunkSize is the window length in characters.
	DefaultChunkSize = 600
	// DefaultOverlap is the number of characters repeated between consecutive windows.
	DefaultOverlap = 100
)

// Chunker splits extracted text into chunks that can be embedded and indexed.
type Chunker interface {
	Chunk(ctx context.Context, text string) ([]document.Chunk, error)
}

// Options holds the window size and overlap, both in characters.
type Options struct {
	ChunkSize int
	Overlap   int
}

// WindowChunker cuts fixed-size overlapping windows and snaps each cut back to
// the nearest sentence, line or word boundary.
type WindowChunker struct {
	size    int
	overlap int
}

// Option customizes the window chunker.
type Option func(*Options)

// WithChunkSize overrides the default chunk size (characters).
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithOverlap configures overlap (characters) between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.Overlap = overlap
		}
	}
}

// NewWindowChunker constructs a chunker with the default 600/100 window.
func NewWindowChunker(opts ...Option) *WindowChunker {
	cfg := &Options{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &WindowChunker{size: cfg.ChunkSize, overlap: cfg.Overlap}
}

// Chunk implements Chunker.
func (c *WindowChunker) Chunk(ctx context.Context, text string) ([]document.Chunk, error) {
	return Split(text, c.size, c.overlap), nil
}

// Split cuts text into overlapping windows of size characters. Each window
// that does not reach the end of the text is shortened to end just after the
// last ". ", newline or space inside it. The next window always starts
// size-overlap characters after the previous start. Empty or whitespace-only
// text yields no chunks; whitespace-only windows are skipped without
// consuming an id.
func Split(text string, size, overlap int) []document.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)
	var out []document.Chunk
	for pos := 0; pos < n; pos += size - overlap {
		end := pos + size
		if end < n {
			bp := lastIndex(runes, pos, end, ". ")
			if bp == -1 {
				bp = lastIndex(runes, pos, end, "\n")
			}
			if bp == -1 {
				bp = lastIndex(runes, pos, end, " ")
			}
			if bp > pos {
				end = bp + 1
			}
		}
		if end > n {
			end = n
		}
		piece := strings.TrimSpace(string(runes[pos:end]))
		if piece == "" {
			continue
		}
		out = append(out, document.Chunk{
			ID:    len(out),
			Text:  piece,
			Start: pos,
			End:   end,
		})
	}
	return out
}

// lastIndex returns the start of the last occurrence of sep lying entirely in runes[lo:hi], or -1.
func lastIndex(runes []rune, lo, hi int, sep string) int {
	s := []rune(sep)
	for i := hi - len(s); i >= lo; i-- {
		match := true
		for j, r := range s {
			if runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Stats summarises a chunk sequence.
type Stats struct {
	Count     int     `json:"count"`
	AvgLength float64 `json:"avg_length"`
}

// Summarize reports the number of chunks and their average length in characters.
func Summarize(chunks []document.Chunk) Stats {
	st := Stats{Count: len(chunks)}
	if len(chunks) == 0 {
		return st
	}
	total := 0
	for _, c := range chunks {
		total += len([]rune(c.Text))
	}
	st.AvgLength = float64(total) / float64(len(chunks))
	return st
}
