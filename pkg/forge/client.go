package forge

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// SleepFunc is the injectable delay used for rate-limit cooldowns and retry
// pauses. It must honor context cancellation. Tests stub it to avoid real
// sleeps.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config configures a pipeline client.
type Config struct {
	// Connection identifies the API. When nil, the connection is resolved
	// from the FORGE_API_URL and FORGE_API_TOKEN environment variables.
	Connection *Connection

	// Logger receives pipeline events. Defaults to NopLogger.
	Logger Logger

	// UserAgent overrides the default "forge-client/<version> (<go>)" value.
	UserAgent string

	// PerPage is the page size requested on paginated GETs. Defaults to 100,
	// deliberately larger than typical API defaults to bound the number of
	// physical requests.
	PerPage int

	// RetryMax and the wait bounds configure transport-level retries inside
	// the underlying HTTP client. Zero keeps transport retries off so the
	// pipeline's own retry semantics stay observable.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// HTTPClient optionally replaces the underlying transport.
	HTTPClient *http.Client

	// Debug enables request/response logging through Logger.
	Debug bool

	// Sleep replaces the blocking delay. Defaults to a context-aware
	// time.Sleep equivalent.
	Sleep SleepFunc
}

// Client is the logical-call surface of the pipeline. One call becomes zero
// or more physical HTTP requests; every outcome is reported through an
// Envelope. With Connection.Strict disabled, ordinary 4xx/5xx responses
// return a failed envelope and a nil error; only configuration problems,
// transport failures, and rate-limit exhaustion produce errors.
type Client interface {
	// Get issues a GET and transparently follows cursor pagination,
	// returning the accumulated records of every page in server order.
	Get(ctx context.Context, path string, query url.Values) (*Envelope, error)

	// Post issues a POST with a JSON body.
	Post(ctx context.Context, path string, body any) (*Envelope, error)

	// Put issues a PUT with a JSON body, retrying transparently on edge 520
	// responses before classification.
	Put(ctx context.Context, path string, body any) (*Envelope, error)

	// Delete issues a DELETE with an optional JSON body.
	Delete(ctx context.Context, path string, body any) (*Envelope, error)

	// Pages returns a page-by-page iterator for callers that do not want
	// the flattening behavior of Get.
	Pages(ctx context.Context, path string, query url.Values) PageIterator
}

// PageIterator walks a paginated GET one physical page at a time. Each page
// runs through the same normalize/guard/classify pipeline as Get.
type PageIterator interface {
	// HasNext reports whether another page can be fetched.
	HasNext() bool

	// Next fetches the next page. Calling Next after HasNext returns false
	// yields a nil envelope and ErrNoMorePages.
	Next() (*Envelope, error)

	// All drains the remaining pages into one merged envelope.
	All() (*Envelope, error)
}
