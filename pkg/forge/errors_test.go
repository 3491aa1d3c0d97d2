package forge_test

import (
	"fmt"
	"testing"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		kind forge.Kind
	}{
		{400, forge.KindBadRequest},
		{401, forge.KindUnauthorized},
		{403, forge.KindForbidden},
		{404, forge.KindNotFound},
		{405, forge.KindMethodNotAllowed},
		{409, forge.KindConflict},
		{412, forge.KindPreconditionFailed},
		{422, forge.KindUnprocessable},
		{429, forge.KindRateLimited},
		{500, forge.KindServerError},
		{502, forge.KindServerError},
		{503, forge.KindServiceUnavailable},
		{519, forge.KindServerError},
		{520, forge.KindEdgeProvider},
		{525, forge.KindEdgeProvider},
		{530, forge.KindEdgeProvider},
		{531, forge.KindServerError},
		{418, forge.KindUnknown},
		{451, forge.KindUnknown},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("%d -> %s", tt.code, tt.kind), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.kind, forge.KindForStatus(tt.code))
		})
	}
}

func TestError_Error(t *testing.T) {
	t.Parallel()
	t.Run("classified http failure", func(t *testing.T) {
		t.Parallel()

		err := &forge.Error{
			Kind:    forge.KindNotFound,
			Method:  "GET",
			Code:    404,
			URL:     "https://api.example.com/v4/projects/1",
			Message: "404 Project Not Found",
		}
		assert.Equal(t, "GET 404 https://api.example.com/v4/projects/1 - 404 Project Not Found", err.Error())
	})

	t.Run("classified failure without message", func(t *testing.T) {
		t.Parallel()

		err := &forge.Error{
			Kind:   forge.KindServerError,
			Method: "POST",
			Code:   500,
			URL:    "https://api.example.com/v4/projects",
		}
		assert.Equal(t, "POST 500 https://api.example.com/v4/projects", err.Error())
	})

	t.Run("configuration failure", func(t *testing.T) {
		t.Parallel()

		err := &forge.Error{
			Kind:    forge.KindConfiguration,
			Message: "base URL is required",
		}
		assert.Equal(t, "configuration: base URL is required", err.Error())
	})

	t.Run("transport failure wraps cause", func(t *testing.T) {
		t.Parallel()

		cause := fmt.Errorf("dial tcp: connection refused")
		err := &forge.Error{
			Kind:    forge.KindTransport,
			Message: "executing request",
			Err:     cause,
		}
		assert.Contains(t, err.Error(), "transport")
		assert.Contains(t, err.Error(), "connection refused")
		assert.ErrorIs(t, err, cause)
	})
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	notFound := &forge.Error{Kind: forge.KindNotFound, Method: "GET", Code: 404}
	wrapped := fmt.Errorf("fetching project: %w", notFound)

	assert.True(t, forge.IsNotFound(notFound))
	assert.True(t, forge.IsNotFound(wrapped))
	assert.False(t, forge.IsNotFound(fmt.Errorf("plain")))
	assert.False(t, forge.IsRateLimited(notFound))

	rateLimited := &forge.Error{Kind: forge.KindRateLimited, Method: "GET", Code: 200}
	assert.True(t, forge.IsRateLimited(rateLimited))

	assert.Equal(t, forge.KindNotFound, forge.KindOf(wrapped))
	assert.Equal(t, forge.KindUnknown, forge.KindOf(fmt.Errorf("plain")))
	assert.Equal(t, forge.KindUnknown, forge.KindOf(nil))
}
