// Package enricher attaches data to the middleware context before generation.
package enricher

import (
	"github.com/google/uuid"
	"github.com/sweetpotato0/selfrag/middleware"
)

// EnricherFunc enriches the context
type EnricherFunc func(*middleware.Context) error

// ContextEnricher adds additional data to the middleware context
type ContextEnricher struct {
	enricher EnricherFunc
}

// NewContextEnricher creates a context enriching middleware
func NewContextEnricher(enricher EnricherFunc) *ContextEnricher {
	return &ContextEnricher{enricher: enricher}
}

// NewRequestID tags every call with a fresh request id.
func NewRequestID() *ContextEnricher {
	return NewContextEnricher(func(ctx *middleware.Context) error {
		ctx.Metadata[middleware.RequestIDKey] = uuid.NewString()
		return nil
	})
}

// Name returns the middleware name
func (m *ContextEnricher) Name() string {
	return "ContextEnricher"
}

// Execute enriches the context
func (m *ContextEnricher) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.enricher != nil {
		if ctx.Metadata == nil {
			ctx.Metadata = make(map[string]any)
		}
		if err := m.enricher(ctx); err != nil {
			return err
		}
	}
	return next(ctx)
}
