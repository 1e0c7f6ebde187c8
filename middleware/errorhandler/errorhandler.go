// Package errorhandler maps and retries generation errors.
package errorhandler

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sweetpotato0/selfrag/middleware"
	"github.com/sweetpotato0/selfrag/pkg/logging"
)

// ErrorHandlerFunc handles errors
type ErrorHandlerFunc func(error) error

// ErrorHandler handles errors in the middleware chain
type ErrorHandler struct {
	handler ErrorHandlerFunc
}

// NewErrorHandler creates an error handling middleware
func NewErrorHandler(handler ErrorHandlerFunc) *ErrorHandler {
	return &ErrorHandler{handler: handler}
}

// Name returns the middleware name
func (m *ErrorHandler) Name() string {
	return "ErrorHandler"
}

// Execute handles errors from downstream middlewares
func (m *ErrorHandler) Execute(ctx *middleware.Context, next middleware.Handler) error {
	err := next(ctx)
	if err != nil && m.handler != nil {
		return m.handler(err)
	}
	return err
}

// Retry re-runs the rest of the chain with exponential backoff. Invalid
// input is never retried, and retrying stops once the caller's context ends.
// Per-attempt deadlines set further down the chain are retried.
type Retry struct {
	maxTries uint
	initial  time.Duration
}

// NewRetry allows up to maxTries attempts in total, the first retry waiting
// initial. maxTries below 1 is treated as 1.
func NewRetry(maxTries uint, initial time.Duration) *Retry {
	if maxTries < 1 {
		maxTries = 1
	}
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	return &Retry{maxTries: maxTries, initial: initial}
}

// Name returns the middleware name
func (m *Retry) Name() string {
	return "Retry"
}

// Execute implements middleware.Middleware.
func (m *Retry) Execute(ctx *middleware.Context, next middleware.Handler) error {
	logger := logging.WithComponent("generation")
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.initial

	_, err := backoff.Retry(ctx.Context(), func() (struct{}, error) {
		err := next(ctx)
		if err != nil && !retryable(ctx.Context(), err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(m.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("generation failed, retrying", "error", err, "wait", wait)
		}),
	)
	return err
}

func retryable(ctx context.Context, err error) bool {
	return ctx.Err() == nil && !errors.Is(err, middleware.ErrInvalidInput)
}
