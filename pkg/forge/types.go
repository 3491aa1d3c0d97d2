package forge

import (
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Connection describes how to reach the remote API. It is immutable once
// resolved: the pipeline never writes to it, so a single value may be shared
// freely across goroutines.
type Connection struct {
	// BaseURL is the https root of the API, e.g. "https://api.example.com/v4".
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Token is the bearer token sent with every request.
	Token string `json:"token" yaml:"token"`

	// Strict controls error disposition for ordinary 4xx/5xx responses.
	// When false (the default), failed responses are reflected in the
	// envelope's Status and no error is returned; callers branch on the
	// Status booleans. Rate-limit exhaustion and configuration problems
	// are errors regardless of this flag.
	Strict bool `json:"strict" yaml:"strict"`
}

// Status is the derived view of an HTTP status code. All booleans are
// computed from Code and are always mutually consistent.
type Status struct {
	Code        int  `json:"code"         yaml:"code"`
	OK          bool `json:"ok"           yaml:"ok"`
	Successful  bool `json:"successful"   yaml:"successful"`
	Failed      bool `json:"failed"       yaml:"failed"`
	ClientError bool `json:"client_error" yaml:"client_error"`
	ServerError bool `json:"server_error" yaml:"server_error"`
}

// StatusFor derives a Status from an HTTP status code.
func StatusFor(code int) Status {
	status := Status{Code: code}
	status.OK = code == http.StatusOK
	status.Successful = code >= 200 && code < 300
	status.ClientError = code >= 400 && code < 500
	status.ServerError = code >= 500
	status.Failed = !status.Successful

	return status
}

// Envelope is the uniform result of any logical call: the decoded response
// body, the response headers, and the derived status. For a paginated GET the
// Data field holds the accumulated records of every page in server order and
// Headers/Status come from the final page.
type Envelope struct {
	Data    any         `json:"data"`
	Headers http.Header `json:"headers"`
	Status  Status      `json:"status"`
}

// Records returns Data as a slice. A list body is returned as-is; a single
// object or scalar is wrapped in a one-element slice; nil Data yields nil.
func (e *Envelope) Records() []any {
	if e == nil || e.Data == nil {
		return nil
	}

	if list, ok := e.Data.([]any); ok {
		return list
	}

	return []any{e.Data}
}

// RateLimit is the quota state parsed from a single response's headers.
// Fields are nil when the corresponding header is absent.
type RateLimit struct {
	Limit     *int
	Remaining *int
	Reset     *time.Time
}

// Rate-limit headers consumed from responses. Lookup through http.Header is
// case-insensitive, so lowercase variants are covered as well.
const (
	HeaderRateLimitLimit     = "RateLimit-Limit"
	HeaderRateLimitRemaining = "RateLimit-Remaining"
	HeaderRateLimitReset     = "RateLimit-Reset"
)

// ParseRateLimit extracts the rate-limit state from response headers.
// Malformed values are treated as absent.
func ParseRateLimit(headers http.Header) RateLimit {
	var info RateLimit

	if raw := headers.Get(HeaderRateLimitLimit); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			info.Limit = &v
		}
	}

	if raw := headers.Get(HeaderRateLimitRemaining); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			info.Remaining = &v
		}
	}

	if raw := headers.Get(HeaderRateLimitReset); raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			reset := time.Unix(secs, 0)
			info.Reset = &reset
		}
	}

	return info
}

// Query is a convenience alias for request query parameters.
type Query = url.Values
