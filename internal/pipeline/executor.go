package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	forgehttp "github.com/forgeline-io/forge/internal/http"
	"github.com/forgeline-io/forge/pkg/forge"
)

// Edge 520 retry policy for PUT. The edge provider's "unknown error" is
// transient often enough that a bounded, fixed-delay retry clears it.
const (
	edgeRetryStatus = 520
	edgeRetryMax    = 10
	edgeRetryDelay  = 2 * time.Second
)

const defaultPerPage = 100

// Executor orchestrates the pipeline for each verb: connection resolution,
// the physical request, normalization, the rate-limit guard, error
// classification, and (GET only) pagination. It implements forge.Client.
// Executors hold no per-call mutable state and are safe for concurrent use;
// each logical call owns its retry and backoff state exclusively.
type Executor struct {
	config    *forge.Config
	transport *forgehttp.Client
	logger    forge.Logger
	guard     *RateLimitGuard
	sleep     forge.SleepFunc
	perPage   int
}

// NewExecutor wires an executor from config, applying defaults for the
// logger, sleep function, user agent, and page size.
func NewExecutor(config *forge.Config) (*Executor, error) {
	if config == nil {
		return nil, forge.ErrConfigRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = forge.NopLogger{}
	}

	sleep := config.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	perPage := config.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("forge-client/%s (%s)", forge.Version, runtime.Version())
	}

	transportOpts := []forgehttp.Option{
		forgehttp.WithUserAgent(userAgent),
		forgehttp.WithLogger(logger),
		forgehttp.WithDebug(config.Debug),
	}

	if config.RetryMax > 0 {
		transportOpts = append(transportOpts,
			forgehttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.HTTPClient != nil {
		transportOpts = append(transportOpts, forgehttp.WithHTTPClient(config.HTTPClient))
	}

	exec := &Executor{
		config:    config,
		transport: forgehttp.NewClient("", transportOpts...),
		logger:    logger,
		sleep:     sleep,
		perPage:   perPage,
	}
	exec.guard = NewRateLimitGuard(logger, sleep)

	return exec, nil
}

// Get issues a GET and follows cursor pagination until exhausted.
func (e *Executor) Get(ctx context.Context, path string, query url.Values) (*forge.Envelope, error) {
	conn, err := ResolveConnection(e.config.Connection)
	if err != nil {
		return nil, err
	}

	it := &pageIterator{ctx: ctx, exec: e, conn: conn, path: path, query: query}

	return it.All()
}

// Post issues a single POST with a JSON body.
func (e *Executor) Post(ctx context.Context, path string, body any) (*forge.Envelope, error) {
	return e.write(ctx, http.MethodPost, path, body)
}

// Delete issues a single DELETE with an optional JSON body.
func (e *Executor) Delete(ctx context.Context, path string, body any) (*forge.Envelope, error) {
	return e.write(ctx, http.MethodDelete, path, body)
}

// Put issues a PUT, retrying transparently on edge 520 responses before
// classification: up to edgeRetryMax attempts, each retry preceded by a
// fixed delay, stopping early on any non-520 response.
func (e *Executor) Put(ctx context.Context, path string, body any) (*forge.Envelope, error) {
	conn, err := ResolveConnection(e.config.Connection)
	if err != nil {
		return nil, err
	}

	requestURL, err := joinRequestURL(conn.BaseURL, path, nil)
	if err != nil {
		return nil, err
	}

	var env *forge.Envelope

	for attempt := 1; ; attempt++ {
		env, err = e.roundTrip(ctx, conn, http.MethodPut, requestURL, body)
		if err != nil {
			return env, err
		}

		if env.Status.Code != edgeRetryStatus || attempt >= edgeRetryMax {
			break
		}

		e.logger.Warn("edge provider error, retrying", map[string]interface{}{
			"event":   "edge_retry",
			"method":  http.MethodPut,
			"url":     requestURL,
			"attempt": attempt,
			"delay":   edgeRetryDelay.String(),
		})

		if sleepErr := e.sleep(ctx, edgeRetryDelay); sleepErr != nil {
			return env, &forge.Error{
				Kind:    forge.KindTransport,
				Method:  http.MethodPut,
				URL:     requestURL,
				Message: "canceled during edge retry delay",
				Err:     sleepErr,
			}
		}
	}

	return env, e.classify(env, http.MethodPut, requestURL, conn.Strict)
}

// Pages returns the page-by-page iterator. Connection resolution is
// deferred to the first Next call.
func (e *Executor) Pages(ctx context.Context, path string, query url.Values) forge.PageIterator {
	return &pageIterator{ctx: ctx, exec: e, path: path, query: query}
}

func (e *Executor) write(ctx context.Context, method, path string, body any) (*forge.Envelope, error) {
	conn, err := ResolveConnection(e.config.Connection)
	if err != nil {
		return nil, err
	}

	requestURL, err := joinRequestURL(conn.BaseURL, path, nil)
	if err != nil {
		return nil, err
	}

	env, err := e.roundTrip(ctx, conn, method, requestURL, body)
	if err != nil {
		return env, err
	}

	return env, e.classify(env, method, requestURL, conn.Strict)
}

// fetchFirstPage issues the opening GET of a logical call, applying the
// per-page default to bound the number of physical requests.
func (e *Executor) fetchFirstPage(ctx context.Context, conn *forge.Connection, path string, query url.Values) (*forge.Envelope, error) {
	merged := cloneQuery(query)
	if merged.Get("per_page") == "" {
		merged.Set("per_page", strconv.Itoa(e.perPage))
	}

	requestURL, err := joinRequestURL(conn.BaseURL, path, merged)
	if err != nil {
		return nil, err
	}

	env, err := e.roundTrip(ctx, conn, http.MethodGet, requestURL, nil)
	if err != nil {
		return env, err
	}

	return env, e.classify(env, http.MethodGet, requestURL, conn.Strict)
}

// fetchPage follows a pagination cursor exactly as the server supplied it.
func (e *Executor) fetchPage(ctx context.Context, conn *forge.Connection, cursorURL string) (*forge.Envelope, error) {
	env, err := e.roundTrip(ctx, conn, http.MethodGet, cursorURL, nil)
	if err != nil {
		return env, err
	}

	return env, e.classify(env, http.MethodGet, cursorURL, conn.Strict)
}

// roundTrip performs one physical request and runs it through normalization
// and the rate-limit guard. Transport failures surface immediately as
// KindTransport without touching the guard or the paginator.
func (e *Executor) roundTrip(ctx context.Context, conn *forge.Connection, method, requestURL string, body any) (*forge.Envelope, error) {
	resp, err := e.transport.Do(ctx, &forgehttp.Request{
		Method: method,
		Path:   requestURL,
		Body:   body,
		Headers: map[string]string{
			"Authorization": "Bearer " + conn.Token,
		},
	})
	if err != nil {
		e.logger.Error("transport failure", map[string]interface{}{
			"event":  "transport_failure",
			"method": method,
			"url":    requestURL,
			"error":  err.Error(),
		})

		return nil, &forge.Error{
			Kind:    forge.KindTransport,
			Method:  method,
			URL:     requestURL,
			Message: "request failed",
			Err:     err,
		}
	}

	env := Normalize(resp.StatusCode, resp.Headers, resp.Body)

	e.logger.Debug("http response", map[string]interface{}{
		"event":       "http_response",
		"method":      method,
		"url":         requestURL,
		"status_code": env.Status.Code,
	})

	if guardErr := e.guard.Check(ctx, method, requestURL, env.Headers); guardErr != nil {
		return env, guardErr
	}

	return env, nil
}

func (e *Executor) classify(env *forge.Envelope, method, requestURL string, strict bool) error {
	err := Classify(env, method, requestURL, strict)
	if err != nil {
		e.logger.Error("request classified as failed", map[string]interface{}{
			"event":       "request_failed",
			"method":      method,
			"url":         requestURL,
			"status_code": env.Status.Code,
			"kind":        string(forge.KindOf(err)),
		})
	}

	return err
}

// joinRequestURL resolves a caller-supplied opaque URI against the base URL
// and encodes query parameters. Absolute URLs pass through with their query
// merged.
func joinRequestURL(baseURL, path string, query url.Values) (string, error) {
	full := path
	if !strings.HasPrefix(full, "http://") && !strings.HasPrefix(full, "https://") {
		full = baseURL + "/" + strings.TrimPrefix(path, "/")
	}

	if len(query) == 0 {
		return full, nil
	}

	parsed, err := url.Parse(full)
	if err != nil {
		return "", configurationError("invalid request URI", err)
	}

	merged := parsed.Query()
	for key, values := range query {
		for _, value := range values {
			merged.Add(key, value)
		}
	}

	parsed.RawQuery = merged.Encode()

	return parsed.String(), nil
}

func cloneQuery(query url.Values) url.Values {
	cloned := url.Values{}
	for key, values := range query {
		cloned[key] = append([]string(nil), values...)
	}

	return cloned
}

// defaultSleep blocks for the given duration, honoring cancellation.
func defaultSleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
