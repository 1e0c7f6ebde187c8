package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates that a source document type has no extractor
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrServiceUnavailable indicates that a generation or embedding backend could not be reached or built
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrEmptyIndex indicates that nothing has been indexed yet
	ErrEmptyIndex = errors.New("index is empty")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)
