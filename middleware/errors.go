package middleware

import (
	"errors"

	selfragerrors "github.com/sweetpotato0/selfrag/errors"
)

var (
	// ErrRateLimitExceeded indicates rate limit has been exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates input validation failed
	ErrInvalidInput = selfragerrors.ErrInvalidInput

	// ErrInvalidContext indicates middleware context is invalid
	ErrInvalidContext = errors.New("invalid middleware context")
)
