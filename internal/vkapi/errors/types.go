// Package errors classifies remote API failures so the client knows which
// ones are worth retrying.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how the retry loop treats an error.
type ErrorCategory int

const (
	// Recoverable errors are retried with exponential backoff.
	// Examples: HTTP 5xx, flood control, network timeouts.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors fail the request immediately.
	// Examples: an invalid access token, a denied permission.
	Irrecoverable
)

func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError wraps a remote failure with its retry category.
type ClassifiedError struct {
	Category   ErrorCategory
	Method     string // API method, e.g. "messages.getHistory"
	StatusCode int    // HTTP status (0 for network errors)
	APICode    int    // error_code from the response body (0 if none)
	Underlying error
}

func (e *ClassifiedError) Error() string {
	switch {
	case e.APICode > 0:
		return fmt.Sprintf("[%s] %s: API error %d: %v", e.Category, e.Method, e.APICode, e.Underlying)
	case e.StatusCode > 0:
		return fmt.Sprintf("[%s] %s: HTTP %d: %v", e.Category, e.Method, e.StatusCode, e.Underlying)
	default:
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Method, e.Underlying)
	}
}

func (e *ClassifiedError) Unwrap() error { return e.Underlying }

// IsIrrecoverable reports whether err (or anything it wraps) is a
// ClassifiedError that must not be retried.
func IsIrrecoverable(err error) bool {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Category == Irrecoverable
	}
	return false
}
