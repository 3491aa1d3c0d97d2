package pipeline

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/forgeline-io/forge/pkg/forge"
)

// Normalize converts a raw transport response into the uniform envelope.
// Pure: no side effects, no I/O. JSON bodies decode to generic values;
// anything else surfaces as the raw string so no response is ever dropped.
func Normalize(statusCode int, headers http.Header, body []byte) *forge.Envelope {
	return &forge.Envelope{
		Data:    decodeBody(body),
		Headers: headers,
		Status:  forge.StatusFor(statusCode),
	}
}

// NormalizePages folds accumulated page records and the final page's
// response into one envelope, so a paginated call and a single-page call
// present the same shape.
func NormalizePages(records []any, last *forge.Envelope) *forge.Envelope {
	return &forge.Envelope{
		Data:    records,
		Headers: last.Headers,
		Status:  last.Status,
	}
}

func decodeBody(body []byte) any {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return trimmed
	}

	return decoded
}
