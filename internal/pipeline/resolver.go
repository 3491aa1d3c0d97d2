package pipeline

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/forgeline-io/forge/pkg/forge"
)

// Environment fallbacks used when no explicit connection is supplied.
const (
	EnvBaseURL = "FORGE_API_URL"
	EnvToken   = "FORGE_API_TOKEN"
)

// tokenPattern is the expected token charset. Personal access tokens are
// URL-safe base64-ish strings; anything else is a configuration mistake
// caught before the first request.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_=\-]{8,}$`)

// ResolveConnection validates the explicit connection or falls back to the
// environment, returning a defensive copy. It runs before any network I/O:
// a configuration failure never produces a physical request.
func ResolveConnection(conn *forge.Connection) (*forge.Connection, error) {
	resolved := forge.Connection{}
	if conn != nil {
		resolved = *conn
	}

	if resolved.BaseURL == "" {
		resolved.BaseURL = os.Getenv(EnvBaseURL)
	}

	if resolved.Token == "" {
		resolved.Token = os.Getenv(EnvToken)
	}

	if err := validateBaseURL(resolved.BaseURL); err != nil {
		return nil, configurationError("invalid base URL", err)
	}

	if err := validateToken(resolved.Token); err != nil {
		return nil, configurationError("invalid token", err)
	}

	resolved.BaseURL = strings.TrimSuffix(resolved.BaseURL, "/")

	return &resolved, nil
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return forge.ErrBaseURLRequired
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", forge.ErrMalformedBaseURL, err)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", forge.ErrMalformedBaseURL)
	}

	// Plain http is permitted only for loopback hosts.
	if parsed.Scheme != "https" && !(parsed.Scheme == "http" && isLoopback(parsed.Hostname())) {
		return fmt.Errorf("%w: got %q", forge.ErrInsecureBaseURL, parsed.Scheme)
	}

	return nil
}

func validateToken(token string) error {
	if token == "" {
		return forge.ErrTokenRequired
	}

	if !tokenPattern.MatchString(token) {
		return forge.ErrMalformedToken
	}

	return nil
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func configurationError(message string, cause error) *forge.Error {
	return &forge.Error{
		Kind:    forge.KindConfiguration,
		Message: message,
		Err:     cause,
	}
}
