package forge_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		code        int
		ok          bool
		successful  bool
		failed      bool
		clientError bool
		serverError bool
	}{
		{name: "200 OK", code: 200, ok: true, successful: true},
		{name: "201 created", code: 201, successful: true},
		{name: "204 no content", code: 204, successful: true},
		{name: "299 edge of success band", code: 299, successful: true},
		{name: "301 redirect", code: 301, failed: true},
		{name: "400 bad request", code: 400, failed: true, clientError: true},
		{name: "404 not found", code: 404, failed: true, clientError: true},
		{name: "429 too many requests", code: 429, failed: true, clientError: true},
		{name: "499 edge of client band", code: 499, failed: true, clientError: true},
		{name: "500 server error", code: 500, failed: true, serverError: true},
		{name: "503 unavailable", code: 503, failed: true, serverError: true},
		{name: "520 edge provider", code: 520, failed: true, serverError: true},
		{name: "599 end of range", code: 599, failed: true, serverError: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status := forge.StatusFor(tt.code)
			assert.Equal(t, tt.code, status.Code)
			assert.Equal(t, tt.ok, status.OK)
			assert.Equal(t, tt.successful, status.Successful)
			assert.Equal(t, tt.failed, status.Failed)
			assert.Equal(t, tt.clientError, status.ClientError)
			assert.Equal(t, tt.serverError, status.ServerError)
		})
	}
}

func TestStatusFor_Consistency(t *testing.T) {
	t.Parallel()

	// Failed and Successful must stay complementary over the whole range.
	for code := 200; code <= 599; code++ {
		status := forge.StatusFor(code)
		assert.Equal(t, !status.Successful, status.Failed, "code %d", code)
		assert.False(t, status.ClientError && status.ServerError, "code %d", code)

		if status.OK {
			assert.True(t, status.Successful, "code %d", code)
		}
	}
}

func TestEnvelope_Records(t *testing.T) {
	t.Parallel()
	t.Run("list body returned as-is", func(t *testing.T) {
		t.Parallel()

		env := &forge.Envelope{Data: []any{"a", "b", "c"}}
		assert.Equal(t, []any{"a", "b", "c"}, env.Records())
	})

	t.Run("object body wrapped in one-element slice", func(t *testing.T) {
		t.Parallel()

		env := &forge.Envelope{Data: map[string]any{"id": "42"}}
		records := env.Records()
		require.Len(t, records, 1)
		assert.Equal(t, map[string]any{"id": "42"}, records[0])
	})

	t.Run("nil data yields nil", func(t *testing.T) {
		t.Parallel()

		env := &forge.Envelope{}
		assert.Nil(t, env.Records())
	})

	t.Run("nil envelope yields nil", func(t *testing.T) {
		t.Parallel()

		var env *forge.Envelope
		assert.Nil(t, env.Records())
	})
}

func TestParseRateLimit(t *testing.T) {
	t.Parallel()
	t.Run("all headers present", func(t *testing.T) {
		t.Parallel()

		headers := http.Header{}
		headers.Set(forge.HeaderRateLimitLimit, "100")
		headers.Set(forge.HeaderRateLimitRemaining, "42")
		headers.Set(forge.HeaderRateLimitReset, "1756000000")

		info := forge.ParseRateLimit(headers)
		require.NotNil(t, info.Limit)
		require.NotNil(t, info.Remaining)
		require.NotNil(t, info.Reset)
		assert.Equal(t, 100, *info.Limit)
		assert.Equal(t, 42, *info.Remaining)
		assert.Equal(t, time.Unix(1756000000, 0), *info.Reset)
	})

	t.Run("lowercase headers match", func(t *testing.T) {
		t.Parallel()

		headers := http.Header{}
		headers.Set("ratelimit-limit", "60")
		headers.Set("ratelimit-remaining", "59")

		info := forge.ParseRateLimit(headers)
		require.NotNil(t, info.Limit)
		require.NotNil(t, info.Remaining)
		assert.Equal(t, 60, *info.Limit)
		assert.Equal(t, 59, *info.Remaining)
	})

	t.Run("absent headers yield nil fields", func(t *testing.T) {
		t.Parallel()

		info := forge.ParseRateLimit(http.Header{})
		assert.Nil(t, info.Limit)
		assert.Nil(t, info.Remaining)
		assert.Nil(t, info.Reset)
	})

	t.Run("malformed values treated as absent", func(t *testing.T) {
		t.Parallel()

		headers := http.Header{}
		headers.Set(forge.HeaderRateLimitLimit, "not-a-number")
		headers.Set(forge.HeaderRateLimitRemaining, "")
		headers.Set(forge.HeaderRateLimitReset, "soon")

		info := forge.ParseRateLimit(headers)
		assert.Nil(t, info.Limit)
		assert.Nil(t, info.Remaining)
		assert.Nil(t, info.Reset)
	})
}
