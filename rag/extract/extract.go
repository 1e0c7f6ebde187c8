// Package extract turns source documents into plain text for chunking.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	selfragerrors "github.com/sweetpotato0/selfrag/errors"
)

// Result is the extracted text of one source file.
type Result struct {
	Source string   `json:"source"`
	Text   string   `json:"text"`
	Pages  []string `json:"pages,omitempty"` // per-page text for paged formats; "" for unreadable pages
}

// PageCount reports how many pages were read; non-paged formats count as one.
func (r *Result) PageCount() int {
	if len(r.Pages) == 0 {
		return 1
	}
	return len(r.Pages)
}

// Extractor reads one file format.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (*Result, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (*Result, error) {
	return f(ctx, path)
}

// Registry dispatches on file extension.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]Extractor
}

// NewRegistry returns a registry with every built-in format registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(ExtractorFunc(PDF), ".pdf")
	r.Register(ExtractorFunc(DOCX), ".docx")
	r.Register(ExtractorFunc(XLSX), ".xlsx", ".xlsm")
	r.Register(ExtractorFunc(HTML), ".html", ".htm")
	r.Register(ExtractorFunc(Markdown), ".md", ".markdown")
	r.Register(ExtractorFunc(Text), ".txt", ".text", "")
	return r
}

// Register binds an extractor to one or more extensions (with leading dot).
func (r *Registry) Register(e Extractor, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Supported lists registered extensions.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Extract reads path with the extractor registered for its extension.
func (r *Registry) Extract(ctx context.Context, path string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	e, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", selfragerrors.ErrUnsupportedFormat, ext)
	}
	res, err := e.Extract(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	if res.Source == "" {
		res.Source = path
	}
	return res, nil
}

var defaultRegistry = NewRegistry()

// File extracts path using the built-in registry.
func File(ctx context.Context, path string) (*Result, error) {
	return defaultRegistry.Extract(ctx, path)
}
