package vkapi

// Functional options for New. Each validates its input and returns an
// error instead of silently clamping.

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithVersion sets the API version sent with every request.
func WithVersion(v string) Option {
	return func(c *Client) error {
		if v == "" {
			return fmt.Errorf("api version cannot be empty")
		}
		c.version = v
		return nil
	}
}

// WithHTTPTimeout bounds a single HTTP round trip.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithRequestInterval sets the minimum spacing between requests. Zero
// disables pacing.
func WithRequestInterval(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("request interval must be >= 0")
		}
		if d == 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return nil
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
		return nil
	}
}

// WithLimiter shares an existing limiter, e.g. between clients using the
// same token.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) error {
		if l == nil {
			return fmt.Errorf("limiter cannot be nil")
		}
		c.limiter = l
		return nil
	}
}

// WithRetry configures retries of recoverable errors. maxAttempts counts
// the first try.
func WithRetry(maxAttempts int, base, maxWait time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts < 1 {
			return fmt.Errorf("max attempts must be >= 1")
		}
		if base <= 0 || maxWait < base {
			return fmt.Errorf("invalid backoff bounds %s..%s", base, maxWait)
		}
		c.maxAttempts = maxAttempts
		c.baseBackoff = base
		c.maxBackoff = maxWait
		return nil
	}
}

// WithPageSizes sets the page sizes of history and conversation listing
// and the number of ids per users.get call.
func WithPageSizes(history, conversations, usersChunk int) Option {
	return func(c *Client) error {
		if history <= 0 || conversations <= 0 || usersChunk <= 0 {
			return fmt.Errorf("page sizes must be > 0")
		}
		c.historyPageSize = history
		c.conversationsPageSize = conversations
		c.usersChunkSize = usersChunk
		return nil
	}
}

// WithDebugLogging dumps every request and response at debug level. The
// access token is redacted.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}
