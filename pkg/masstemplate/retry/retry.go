// Package retry wraps spreadsheet API calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts    int           // Total attempts including the first call
	InitialBackoff time.Duration // Wait before the second attempt
	MaxBackoff     time.Duration // Upper bound of a single wait
	BackoffFactor  float64       // Multiplier applied per attempt
	Jitter         float64       // Random jitter factor (0-1)
	RetryableCodes []int         // API status codes worth retrying
}

// DefaultConfig returns the backoff used for Sheets calls.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:    5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     60 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryableCodes: []int{
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusServiceUnavailable,  // 503
		},
	}
}

// Result describes a finished retry loop.
type Result struct {
	Attempts      int
	TotalDuration time.Duration
}

// Func is a retryable operation.
type Func func(ctx context.Context) error

// Retrier runs operations with exponential backoff.
type Retrier struct {
	config *Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a retrier; a nil config uses DefaultConfig.
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &Retrier{config: config, sleep: sleepContext}
}

// StatusCode returns the HTTP status carried by a Google API error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// ShouldRetry reports whether err is transient: a retryable API status or
// a transport failure. Context cancellation is never retried.
func (r *Retrier) ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if code := StatusCode(err); code != 0 {
		for _, c := range r.config.RetryableCodes {
			if code == c {
				return true
			}
		}
		return false
	}

	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Backoff calculates the wait after the given 0-based attempt.
func (r *Retrier) Backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}

	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffFactor, float64(attempt))

	if r.config.Jitter > 0 {
		jitter := backoff * r.config.Jitter * (rand.Float64()*2 - 1)
		backoff += jitter
	}

	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	return time.Duration(backoff)
}

// RetryAfter extracts a Retry-After hint from a Google API error.
func RetryAfter(err error) time.Duration {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Header == nil {
		return 0
	}
	v := apiErr.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

// Do executes fn until it succeeds, fails permanently, runs out of
// attempts or ctx is done.
func (r *Retrier) Do(ctx context.Context, operation string, fn Func) (Result, error) {
	var result Result
	start := time.Now()

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		result.Attempts = attempt + 1

		err := fn(ctx)
		if err == nil {
			result.TotalDuration = time.Since(start)
			return result, nil
		}

		if !r.ShouldRetry(err) {
			result.TotalDuration = time.Since(start)
			return result, err
		}

		if attempt == r.config.MaxAttempts-1 {
			result.TotalDuration = time.Since(start)
			return result, fmt.Errorf("max retries exceeded for %s: %w", operation, err)
		}

		if err := r.sleep(ctx, r.Backoff(attempt, RetryAfter(err))); err != nil {
			result.TotalDuration = time.Since(start)
			return result, err
		}
	}

	result.TotalDuration = time.Since(start)
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
