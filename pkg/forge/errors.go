package forge

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the typed classification of a pipeline failure.
type Kind string

// Error kinds, one per failure class the pipeline distinguishes.
const (
	KindConfiguration      Kind = "configuration"
	KindTransport          Kind = "transport"
	KindBadRequest         Kind = "bad_request"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindMethodNotAllowed   Kind = "method_not_allowed"
	KindConflict           Kind = "conflict"
	KindPreconditionFailed Kind = "precondition_failed"
	KindUnprocessable      Kind = "unprocessable"
	KindRateLimited        Kind = "rate_limited"
	KindServerError        Kind = "server_error"
	KindServiceUnavailable Kind = "service_unavailable"
	KindEdgeProvider       Kind = "edge_provider"
	KindUnknown            Kind = "unknown"
)

// Edge-provider status band: errors in this range originate from an
// intermediary (CDN/edge proxy) rather than the origin API.
const (
	edgeStatusMin = 520
	edgeStatusMax = 530
)

// KindForStatus maps an HTTP status code to its error kind. Codes without a
// dedicated kind fall through to KindUnknown so they never pass silently.
func KindForStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusMethodNotAllowed:
		return KindMethodNotAllowed
	case http.StatusConflict:
		return KindConflict
	case http.StatusPreconditionFailed:
		return KindPreconditionFailed
	case http.StatusUnprocessableEntity:
		return KindUnprocessable
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	}

	switch {
	case code >= edgeStatusMin && code <= edgeStatusMax:
		return KindEdgeProvider
	case code >= 500 && code < edgeStatusMin:
		return KindServerError
	case code > edgeStatusMax:
		return KindServerError
	default:
		return KindUnknown
	}
}

// Error is the typed error surfaced by the pipeline. HTTP classification
// errors carry the request method, status code, and URL; configuration and
// transport errors carry a message and, where applicable, a wrapped cause.
type Error struct {
	Kind    Kind
	Method  string
	Code    int
	URL     string
	Message string
	Err     error
}

// Error implements the error interface. For classified HTTP failures the
// format is "{METHOD} {CODE} {URL} - {message}".
func (e *Error) Error() string {
	if e.Code > 0 {
		if e.Message != "" {
			return fmt.Sprintf("%s %d %s - %s", e.Method, e.Code, e.URL, e.Message)
		}

		return fmt.Sprintf("%s %d %s", e.Method, e.Code, e.URL)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or KindUnknown when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var pipelineErr *Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}

	return KindUnknown
}

func isKind(err error, kind Kind) bool {
	var pipelineErr *Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind == kind
	}

	return false
}

// IsConfiguration checks if the error is a connection configuration error.
func IsConfiguration(err error) bool { return isKind(err, KindConfiguration) }

// IsTransport checks if the error is a network/TLS/DNS transport failure.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsNotFound checks if the error is a 404 classification.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsUnauthorized checks if the error is a 401 classification.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsForbidden checks if the error is a 403 classification.
func IsForbidden(err error) bool { return isKind(err, KindForbidden) }

// IsRateLimited checks if the error signals an exhausted rate-limit quota.
func IsRateLimited(err error) bool { return isKind(err, KindRateLimited) }

// Static errors that can be wrapped with context.
var (
	ErrConnectionRequired = errors.New("connection is required")
	ErrBaseURLRequired    = errors.New("base URL is required")
	ErrTokenRequired      = errors.New("token is required")
	ErrInsecureBaseURL    = errors.New("base URL must use https")
	ErrMalformedBaseURL   = errors.New("base URL is malformed")
	ErrMalformedToken     = errors.New("token contains unexpected characters")
	ErrConfigRequired     = errors.New("config is required")
	ErrNoMorePages        = errors.New("no more pages")
)
