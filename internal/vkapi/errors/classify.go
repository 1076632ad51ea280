package errors

import "fmt"

// API error codes that signal a transient condition on the remote side.
const (
	codeUnknown       = 1  // unknown error, try later
	codeTooMany       = 6  // too many requests per second
	codeFlood         = 9  // flood control
	codeInternalError = 10 // internal server error
)

// ClassifyHTTPError maps an HTTP status to a category:
// 408, 429 and 5xx are recoverable, other 4xx are not.
func ClassifyHTTPError(method string, statusCode int, body string) *ClassifiedError {
	return &ClassifiedError{
		Category:   httpCategory(statusCode),
		Method:     method,
		StatusCode: statusCode,
		Underlying: fmt.Errorf("unexpected status: %s", truncate(body, 256)),
	}
}

func httpCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode == 408, statusCode == 429:
		return Recoverable
	case statusCode >= 400 && statusCode < 500:
		return Irrecoverable
	default:
		return Recoverable
	}
}

// ClassifyAPIError wraps an error reported in the response body.
func ClassifyAPIError(method string, code int, err error) *ClassifiedError {
	category := Irrecoverable
	switch code {
	case codeUnknown, codeTooMany, codeFlood, codeInternalError:
		category = Recoverable
	}
	return &ClassifiedError{
		Category:   category,
		Method:     method,
		APICode:    code,
		Underlying: err,
	}
}

// NewNetworkError wraps a transport failure. Network errors are always
// recoverable.
func NewNetworkError(method string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Recoverable,
		Method:     method,
		Underlying: fmt.Errorf("network error: %w", err),
	}
}

// NewDecodeError wraps a response that could not be parsed.
func NewDecodeError(method string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Irrecoverable,
		Method:     method,
		Underlying: fmt.Errorf("decode response: %w", err),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
