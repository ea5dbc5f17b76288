package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/agentic/internal/config"
)

// Doer is the transport capability the client consumes. *http.Client
// satisfies it; tests substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the agentic run API. One request is in flight at a time
// per instance; the transport may reuse connections across sequential calls.
type Client struct {
	cfg    *config.Config
	http   Doer
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("module", "client").Logger()
	}
}

// New creates a client for the given resolved configuration.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zerolog.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute sends a non-streaming run execution. For synchronous requests the
// response carries the materialized output; for asynchronous requests it
// carries the run identifier to poll with.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Stream.Enable {
		return nil, fmt.Errorf("%w: streaming request sent through Execute, use ExecuteStream", ErrValidation)
	}

	resp, err := c.send(ctx, executeURL(c.cfg.BaseURL, c.cfg.AppID, c.cfg.EnvName), req.body(), false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode execute response: %w", err)
	}

	c.logger.Debug().
		Str("run_id", out.RunID).
		Str("status", out.Status).
		Bool("async", req.Async).
		Msg("Execute completed")

	return &out, nil
}

// ExecuteStream sends a streaming run execution and returns a live consumer
// over the response. The caller owns the stream and must drain or Close it;
// an abandoned stream leaks the connection.
func (c *Client) ExecuteStream(ctx context.Context, req ExecuteRequest) (*Stream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !req.Stream.Enable {
		return nil, fmt.Errorf("%w: ExecuteStream requires streaming to be enabled", ErrValidation)
	}

	resp, err := c.send(ctx, executeURL(c.cfg.BaseURL, c.cfg.AppID, c.cfg.EnvName), req.body(), true)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("mode", req.Stream.Mode).Msg("Stream opened")
	return newStream(resp.Body, req.Stream.Mode, c.logger), nil
}

// RunStatus performs a single status lookup for a run.
func (c *Client) RunStatus(ctx context.Context, runID string) (*RunStatus, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, fmt.Errorf("%w: run ID cannot be empty", ErrValidation)
	}

	resp, err := c.send(ctx, statusURL(c.cfg.BaseURL, c.cfg.AppID, c.cfg.EnvName, runID), struct{}{}, false)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: run %q is unknown to the service", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer resp.Body.Close()

	var status RunStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	return &status, nil
}

// PollRunStatus repeatedly looks up run status at a fixed interval until a
// terminal status is observed. It performs at most maxAttempts lookups and
// fails with ErrTimeout if the run is still pending or running after the
// last one. Cancelling ctx during the inter-attempt wait stops the loop
// without counting a further attempt.
func (c *Client) PollRunStatus(ctx context.Context, runID string, interval time.Duration, maxAttempts int) (*RunStatus, error) {
	if maxAttempts < 1 {
		return nil, fmt.Errorf("%w: maxAttempts must be at least 1", ErrValidation)
	}

	c.logger.Debug().
		Str("run_id", runID).
		Dur("interval", interval).
		Int("max_attempts", maxAttempts).
		Msg("Polling run status")

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := c.RunStatus(ctx, runID)
		if err != nil {
			return nil, err
		}

		if !status.known() {
			return nil, &APIError{Msg: fmt.Sprintf("unexpected run status %q", status.Status)}
		}
		if status.Terminal() {
			c.logger.Debug().
				Str("run_id", runID).
				Str("status", status.Status).
				Int("attempts", attempt).
				Msg("Run reached terminal status")
			return status, nil
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: run %q still not terminal after %d attempts", ErrTimeout, runID, maxAttempts)
}

// ExecuteAndWait starts an asynchronous run and polls it to a terminal status.
func (c *Client) ExecuteAndWait(ctx context.Context, req ExecuteRequest, interval time.Duration, maxAttempts int) (*RunStatus, error) {
	req.Async = true
	resp, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.RunID == "" {
		return nil, &APIError{Msg: "asynchronous execute returned no run ID"}
	}
	return c.PollRunStatus(ctx, resp.RunID, interval, maxAttempts)
}

// errNotFound marks a 404 inside the transport boundary so RunStatus can map
// it to ErrRunNotFound while Execute reports it as a resource error.
var errNotFound = errors.New("not found")

// send posts a JSON body and maps transport and status-code failures into
// the error taxonomy. This is the single boundary where raw status codes
// are inspected.
func (c *Client) send(ctx context.Context, url string, body any, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range headers(c.cfg.APIKey) {
		req.Header.Set(k, v)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	c.logger.Debug().Str("url", url).Msg("Sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: request did not complete within %s", ErrTimeout, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, c.decodeError(resp)
	}

	return resp, nil
}

// decodeError turns a non-2xx response into a taxonomy error.
func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Msg: "unknown error"}

	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		apiErr.Msg = body.Errors[0].Msg
		apiErr.Code = body.Errors[0].Code
	} else if len(raw) > 0 {
		apiErr.Msg = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr.err = ErrAuthentication
	case http.StatusNotFound:
		apiErr.err = errNotFound
	}

	c.logger.Debug().
		Int("status_code", resp.StatusCode).
		Str("msg", apiErr.Msg).
		Msg("Request rejected")

	return apiErr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
