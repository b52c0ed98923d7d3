// Package base provides the shared HTTP transport for Confluence REST clients.
package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/olgasafonova/confluence-mcp-server/metrics"
	"github.com/olgasafonova/confluence-mcp-server/tracing"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when no custom agent is configured
	DefaultUserAgent = "confluence-mcp-server/1.0"
)

// Client carries the transport settings shared by every Confluence client
// built from one factory. It performs exactly one attempt per request.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string

	username string
	password string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.Logger = l
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.HTTPClient = newHTTPClient(d)
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) ClientOption {
	return func(client *Client) {
		client.UserAgent = ua
	}
}

// WithBasicAuth sets the credentials used for HTTP basic authentication
func WithBasicAuth(username, password string) ClientOption {
	return func(client *Client) {
		client.username = username
		client.password = password
	}
}

// NewClient creates a new base client with default settings
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		HTTPClient: newHTTPClient(DefaultTimeout),
		Logger:     slog.Default(),
		UserAgent:  DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HasAuth reports whether basic auth credentials are configured
func (c *Client) HasAuth() bool {
	return c.username != "" || c.password != ""
}

// RequestConfig configures a single HTTP request
type RequestConfig struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	Headers     map[string]string
	Operation   string // metrics/tracing label, e.g. "get_page"
}

// Response is the raw outcome of a request that reached the server.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", r.URL, err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Do performs a single HTTP request and returns the response whatever its
// status code. Only transport failures are returned as errors; the caller
// decides which status codes count as success.
func (c *Client) Do(ctx context.Context, cfg RequestConfig) (*Response, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := tracing.StartSpan(ctx, "confluence."+cfg.Operation)
	defer span.End()
	tracing.AddAPIAttributes(span, cfg.Operation, method, cfg.URL)

	var body io.Reader
	if cfg.Body != nil {
		body = bytes.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	} else {
		req.Header.Set("User-Agent", DefaultUserAgent)
	}
	if cfg.ContentType != "" {
		req.Header.Set("Content-Type", cfg.ContentType)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if c.HasAuth() {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		duration := time.Since(start)
		metrics.RecordAPICall(cfg.Operation, duration.Seconds(), false, "transport")
		tracing.RecordError(span, err)
		c.Logger.Warn("Confluence request failed",
			"operation", cfg.Operation,
			"method", method,
			"url", cfg.URL,
			"duration", duration,
			"error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}

	data, err := readAndClose(resp)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordAPICall(cfg.Operation, duration.Seconds(), false, "transport")
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	ok := resp.StatusCode == http.StatusOK
	errorCode := ""
	if !ok {
		errorCode = strconv.Itoa(resp.StatusCode)
	}
	metrics.RecordAPICall(cfg.Operation, duration.Seconds(), ok, errorCode)
	tracing.AddResponseAttributes(span, resp.StatusCode, len(data))

	c.Logger.Debug("Confluence request",
		"operation", cfg.Operation,
		"method", method,
		"url", cfg.URL,
		"status", resp.StatusCode,
		"duration", duration)
	if !ok {
		c.Logger.Warn("Confluence request returned non-OK status",
			"operation", cfg.Operation,
			"url", cfg.URL,
			"status", resp.StatusCode,
			"body", truncate(string(data), 200))
	}

	finalURL := cfg.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		URL:        finalURL,
		StatusCode: resp.StatusCode,
		Body:       data,
	}, nil
}

// readAndClose reads the response body and closes it
func readAndClose(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return body, err
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// newHTTPClient creates an HTTP client with the given overall timeout
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
