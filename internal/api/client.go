// Package api is the client for the employee REST API. It attaches the
// session's bearer token, classifies failures, and never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/roster/internal/log"
	"github.com/felixgeelhaar/roster/internal/metrics"
	"github.com/felixgeelhaar/roster/internal/telemetry"
)

// DefaultBaseURL is the API origin used when none is configured.
const DefaultBaseURL = "http://localhost:5000"

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the employee API client
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func(error)
	logger         *log.Logger
	metrics        *metrics.Metrics
	userAgent      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource attaches the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler is called once for every 401 on an authenticated
// call before the error is returned. The session uses it to drop the token.
func WithUnauthorizedHandler(fn func(error)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records per-request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorResponse is the JSON body servers send with 4xx/5xx answers
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// call describes one request. route is the path template used for span
// names and metric labels; path is the concrete path with query.
type call struct {
	op     string
	method string
	route  string
	path   string
	body   any
	auth   bool
}

func (c *Client) do(ctx context.Context, rc call, out any) error {
	ctx, span := telemetry.StartAPISpan(ctx, rc.method, rc.route)
	start := time.Now()
	status, err := c.roundTrip(ctx, rc, out)
	telemetry.EndAPISpan(span, status, err)
	c.metrics.RecordAPIRequest(rc.method, rc.route, status, time.Since(start))

	if err != nil {
		c.logger.WithError(err).Debug("api request failed", "op", rc.op)
		if c.onUnauthorized != nil && rc.auth && status == http.StatusUnauthorized {
			c.onUnauthorized(err)
		}
		return err
	}
	c.logger.Debug("api request", "op", rc.op, "status", status, "elapsed", time.Since(start))
	return nil
}

func (c *Client) roundTrip(ctx context.Context, rc call, out any) (int, error) {
	fail := func(kind Kind, status int, msg string, cause error) error {
		return &Error{Kind: kind, Op: rc.op, Method: rc.method, Path: rc.route, Status: status, Message: msg, Err: cause}
	}

	var reqBody io.Reader
	if rc.body != nil {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return 0, fail(KindFailed, 0, "", fmt.Errorf("marshal request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, reqBody)
	if err != nil {
		return 0, fail(KindFailed, 0, "", fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if rc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if rc.auth && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fail(KindFailed, 0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return resp.StatusCode, fail(kindForStatus(resp.StatusCode), resp.StatusCode, serverMessage(body), nil)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fail(KindFailed, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
		}
	}
	return resp.StatusCode, nil
}

// serverMessage extracts {error} or {message} from a JSON error body, falling
// back to the raw text.
func serverMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Error != "" {
			return er.Error
		}
		if er.Message != "" {
			return er.Message
		}
	}
	return strings.TrimSpace(string(body))
}
