// Package http implements the physical transport underneath the pipeline:
// one request in, one raw response out. Retries at this layer are transport
// concerns (connection resets, optional 5xx retry budget); the pipeline owns
// every protocol-level decision.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultTimeout = 30 * time.Second

// Request describes a single physical HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Response is the raw transport result before normalization.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Logger is the minimal logging interface the transport reports into.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client executes physical requests against a base URL.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	userAgent  string
	logger     Logger
	debug      bool
}

// Option configures the transport client.
type Option func(*Client)

// WithLogger sets the logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRetryConfig enables transport-level retries. The default is zero
// retries so callers above see every physical response.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying standard client, keeping the
// retryablehttp wrapper.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a transport client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: defaultTimeout}

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: retryClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes a single physical request. A non-nil error means the request
// never produced an HTTP response (transport failure); HTTP-level failures
// are reported through Response.StatusCode only.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var rawBody []byte

	if req.Body != nil {
		rawBody, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if rawBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": httpResp.StatusCode,
		})
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}, nil
}

// buildURL resolves the request path against the base URL. Absolute URLs
// pass through untouched so pagination cursors are followed exactly as the
// server supplied them.
func (c *Client) buildURL(req *Request) (string, error) {
	fullURL := req.Path
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		if !strings.HasPrefix(fullURL, "/") {
			fullURL = "/" + fullURL
		}

		fullURL = c.baseURL + fullURL
	}

	if len(req.Query) > 0 {
		parsed, err := url.Parse(fullURL)
		if err != nil {
			return "", fmt.Errorf("parsing request URL: %w", err)
		}

		query := parsed.Query()
		for key, values := range req.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		parsed.RawQuery = query.Encode()
		fullURL = parsed.String()
	}

	return fullURL, nil
}
