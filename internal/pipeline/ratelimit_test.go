package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/forgeline-io/forge/internal/pipeline"
	"github.com/forgeline-io/forge/pkg/forge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepRecorder captures requested pauses instead of blocking.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (r *sleepRecorder) Sleep(ctx context.Context, duration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, duration)

	return r.err
}

func (r *sleepRecorder) Calls() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]time.Duration(nil), r.calls...)
}

func rateLimitHeaders(remaining, limit int) http.Header {
	headers := http.Header{}
	headers.Set(forge.HeaderRateLimitRemaining, strconv.Itoa(remaining))
	headers.Set(forge.HeaderRateLimitLimit, strconv.Itoa(limit))

	return headers
}

func TestRateLimitGuard_Check(t *testing.T) {
	t.Parallel()
	t.Run("plenty of quota passes untouched", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(80, 100))
		require.NoError(t, err)
		assert.Empty(t, recorder.Calls())
	})

	t.Run("approaching threshold applies one cooldown", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(15, 100))
		require.NoError(t, err)
		require.Len(t, recorder.Calls(), 1)
		assert.Equal(t, 10*time.Second, recorder.Calls()[0])
	})

	t.Run("exactly at threshold still cools down", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(20, 100))
		require.NoError(t, err)
		assert.Len(t, recorder.Calls(), 1)
	})

	t.Run("just above threshold passes", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(21, 100))
		require.NoError(t, err)
		assert.Empty(t, recorder.Calls())
	})

	t.Run("exhausted quota fails fast without sleeping", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(1, 100))
		require.Error(t, err)
		assert.True(t, forge.IsRateLimited(err))
		assert.Empty(t, recorder.Calls())
	})

	t.Run("zero remaining fails fast", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(0, 100))
		require.Error(t, err)
		assert.True(t, forge.IsRateLimited(err))
	})

	t.Run("no headers is a no-op", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", http.Header{})
		require.NoError(t, err)
		assert.Empty(t, recorder.Calls())
	})

	t.Run("remaining without limit skips the ratio check", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		headers := http.Header{}
		headers.Set(forge.HeaderRateLimitRemaining, "5")

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", headers)
		require.NoError(t, err)
		assert.Empty(t, recorder.Calls())
	})

	t.Run("canceled cooldown surfaces as transport error", func(t *testing.T) {
		t.Parallel()

		recorder := &sleepRecorder{err: errors.New("context canceled")}
		guard := pipeline.NewRateLimitGuard(forge.NopLogger{}, recorder.Sleep)

		err := guard.Check(context.Background(), "GET", "https://api.example.com/items", rateLimitHeaders(10, 100))
		require.Error(t, err)
		assert.True(t, forge.IsTransport(err))
	})
}
