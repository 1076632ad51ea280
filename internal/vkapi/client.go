// Package vkapi is the remote fetch capability: a paced, retrying client of
// the VK HTTP API that returns raw message, user and conversation records.
package vkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	vkerrors "github.com/Totktonada/vk-messages-backup/internal/vkapi/errors"
)

const (
	DefaultBaseURL = "https://api.vk.com/method"
	DefaultVersion = "5.80"
)

// APIError is the error object of a failed API call.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// Client talks to the remote API. Requests are serialized through one
// limiter; a Client is safe for sequential use only.
type Client struct {
	http    *resty.Client
	token   string
	version string
	limiter *rate.Limiter

	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	historyPageSize       int
	conversationsPageSize int
	usersChunkSize        int

	debug bool
}

// New constructs a Client for baseURL authenticated with token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("vkapi: base URL cannot be empty")
	}
	if token == "" {
		return nil, fmt.Errorf("vkapi: access token cannot be empty")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
		token:                 token,
		version:               DefaultVersion,
		limiter:               rate.NewLimiter(rate.Every(350*time.Millisecond), 1),
		maxAttempts:           5,
		baseBackoff:           500 * time.Millisecond,
		maxBackoff:            10 * time.Second,
		historyPageSize:       200,
		conversationsPageSize: 200,
		usersChunkSize:        20,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.debug {
		c.http.SetTransport(&debugTransport{base: http.DefaultTransport})
	}
	return c, nil
}

// call performs method with params, retrying recoverable failures with
// exponential backoff.
func (c *Client) call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.baseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = c.maxBackoff
	exp.Reset()

	for attempt := 1; ; attempt++ {
		raw, err := c.do(ctx, method, params)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if vkerrors.IsIrrecoverable(err) || attempt >= c.maxAttempts {
			return nil, err
		}

		wait := exp.NextBackOff()
		retriesTotal.WithLabelValues(method).Inc()
		log.Warn().
			Err(err).
			Str("method", method).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retrying request")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Client) do(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := map[string]string{
		"access_token": c.token,
		"v":            c.version,
	}
	for k, v := range params {
		query[k] = v
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get("/" + method)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, vkerrors.NewNetworkError(method, err)
	}
	if resp.StatusCode() != http.StatusOK {
		requestsTotal.WithLabelValues(method, "http_error").Inc()
		return nil, vkerrors.ClassifyHTTPError(method, resp.StatusCode(), resp.String())
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	if err := dec.Decode(&env); err != nil {
		requestsTotal.WithLabelValues(method, "decode_error").Inc()
		return nil, vkerrors.NewDecodeError(method, err)
	}
	if env.Error != nil {
		requestsTotal.WithLabelValues(method, "api_error").Inc()
		log.Debug().
			Str("method", method).
			Int("code", env.Error.Code).
			Str("message", env.Error.Message).
			Msg("API responded with error")
		return nil, vkerrors.ClassifyAPIError(method, env.Error.Code, env.Error)
	}
	if len(env.Response) == 0 {
		requestsTotal.WithLabelValues(method, "decode_error").Inc()
		return nil, vkerrors.NewDecodeError(method, fmt.Errorf("no response field"))
	}
	requestsTotal.WithLabelValues(method, "ok").Inc()
	return env.Response, nil
}
