package retry

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func newTestRetrier(attempts int) (*Retrier, *[]time.Duration) {
	r := New(&Config{
		MaxAttempts:    attempts,
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		BackoffFactor:  2,
		RetryableCodes: []int{http.StatusTooManyRequests, http.StatusServiceUnavailable},
	})
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return r, &waits
}

func TestDoRetriesTransientErrors(t *testing.T) {
	r, waits := newTestRetrier(5)

	calls := 0
	res, err := r.Do(context.Background(), "values.get", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: http.StatusTooManyRequests}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	r, waits := newTestRetrier(5)

	res, err := r.Do(context.Background(), "values.update", func(ctx context.Context) error {
		return &googleapi.Error{Code: http.StatusForbidden}
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, *waits)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	r, waits := newTestRetrier(4)

	res, err := r.Do(context.Background(), "batchUpdate", func(ctx context.Context) error {
		return &googleapi.Error{Code: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded for batchUpdate")
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *waits, "backoff is capped")
}

func TestDoHonoursContext(t *testing.T) {
	r, _ := newTestRetrier(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Do(ctx, "values.get", func(ctx context.Context) error {
		return &googleapi.Error{Code: http.StatusTooManyRequests}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Attempts)
}

func TestShouldRetry(t *testing.T) {
	r := New(nil)

	assert.True(t, r.ShouldRetry(&googleapi.Error{Code: 429}))
	assert.True(t, r.ShouldRetry(&googleapi.Error{Code: 500}))
	assert.True(t, r.ShouldRetry(&googleapi.Error{Code: 503}))
	assert.False(t, r.ShouldRetry(&googleapi.Error{Code: 400}))
	assert.True(t, r.ShouldRetry(&url.Error{Op: "Get", URL: "https://sheets.googleapis.com", Err: errors.New("reset")}))
	assert.False(t, r.ShouldRetry(errors.New("worksheet not found")))
	assert.False(t, r.ShouldRetry(context.Canceled))
	assert.False(t, r.ShouldRetry(nil))
}

func TestRetryAfter(t *testing.T) {
	err := &googleapi.Error{Code: 429, Header: http.Header{"Retry-After": []string{"7"}}}
	assert.Equal(t, 7*time.Second, RetryAfter(err))
	assert.Equal(t, 7*time.Second, New(nil).Backoff(0, RetryAfter(err)))
	assert.Zero(t, RetryAfter(errors.New("plain")))
}
