// Package logger records generation calls on a structured logger.
package logger

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/sweetpotato0/selfrag/middleware"
	"github.com/sweetpotato0/selfrag/pkg/logging"
)

// RequestLogger logs every generation call with its size and latency.
type RequestLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewRequestLogger creates a request logging middleware. A nil logger uses
// the shared "generation" component logger.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("generation")
	}
	return &RequestLogger{logger: logger, now: time.Now}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request and its outcome
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	attrs := []any{"prompt_chars", utf8.RuneCountInString(ctx.Prompt)}
	if id, ok := ctx.Metadata[middleware.RequestIDKey].(string); ok {
		attrs = append(attrs, "request_id", id)
	}
	m.logger.Debug("generation started", attrs...)

	start := m.now()
	err := next(ctx)
	attrs = append(attrs, "latency", m.now().Sub(start))
	if err != nil {
		m.logger.Warn("generation failed", append(attrs, "error", err)...)
		return err
	}
	m.logger.Debug("generation completed", append(attrs, "response_chars", utf8.RuneCountInString(ctx.Response))...)
	return nil
}
