// Package validator checks prompts before generation and filters responses after it.
package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/selfrag/middleware"
)

// ValidatorFunc validates input
type ValidatorFunc func(string) error

// FilterFunc transforms or rejects a response
type FilterFunc func(string) (string, error)

// NonEmpty rejects blank prompts.
func NonEmpty(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", middleware.ErrInvalidInput)
	}
	return nil
}

// MaxRunes rejects prompts longer than n characters.
func MaxRunes(n int) ValidatorFunc {
	return func(prompt string) error {
		if l := utf8.RuneCountInString(prompt); n > 0 && l > n {
			return fmt.Errorf("%w: prompt has %d characters, limit is %d", middleware.ErrInvalidInput, l, n)
		}
		return nil
	}
}

// InputValidator validates and cleans input
type InputValidator struct {
	validators []ValidatorFunc
}

// NewInputValidator creates an input validation middleware. Validators run in order.
func NewInputValidator(validators ...ValidatorFunc) *InputValidator {
	return &InputValidator{validators: validators}
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	for _, validate := range m.validators {
		if validate == nil {
			continue
		}
		if err := validate(ctx.Prompt); err != nil {
			return err
		}
	}
	return next(ctx)
}

// TrimResponse strips surrounding whitespace from completions.
func TrimResponse(s string) (string, error) {
	return strings.TrimSpace(s), nil
}

// ResponseFilter filters or transforms the response
type ResponseFilter struct {
	filter FilterFunc
}

// NewResponseFilter creates a response filtering middleware
func NewResponseFilter(filter FilterFunc) *ResponseFilter {
	return &ResponseFilter{filter: filter}
}

// Name returns the middleware name
func (m *ResponseFilter) Name() string {
	return "ResponseFilter"
}

// Execute filters the response
func (m *ResponseFilter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if m.filter == nil {
		return nil
	}
	out, err := m.filter(ctx.Response)
	if err != nil {
		return err
	}
	ctx.Response = out
	return nil
}
