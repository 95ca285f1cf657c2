// Package retry re-runs transient failures with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	Multiplier           float64
	RetryableStatusCodes []int
}

// DefaultConfig makes a single attempt; use WithAttempts to enable retries
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    1,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// WithAttempts returns cfg with MaxAttempts set to 1+retries
func (cfg Config) WithAttempts(retries int) Config {
	cfg.MaxAttempts = max(retries, 0) + 1
	return cfg
}

// WithRetry runs fn until it succeeds, fails permanently, or attempts run
// out. With a single attempt the error of fn is returned unwrapped.
func WithRetry(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 1 {
		return fn()
	}

	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			if attempt > 0 {
				log.Debug().Int("attempts", attempt+1).Msg("Retry succeeded")
			}
			return nil
		}
		if !shouldRetry(err, cfg) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		wait := backoff(attempt, cfg, err)
		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("backoff", wait).
			Msg("Retrying after backoff")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, err)
}

// backoff is InitialBackoff * Multiplier^attempt capped at MaxBackoff. A
// server supplied Retry-After wins when it is longer, still within the cap.
func backoff(attempt int, cfg Config, err error) time.Duration {
	d := time.Duration(float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt)))

	var he HTTPError
	if errors.As(err, &he) && he.RetryAfter > d {
		d = he.RetryAfter
	}
	return min(d, cfg.MaxBackoff)
}

func shouldRetry(err error, cfg Config) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	// errors carrying a status are retried only for configured codes
	var sc StatusCoder
	if errors.As(err, &sc) && sc.GetStatusCode() > 0 {
		return slices.Contains(cfg.RetryableStatusCodes, sc.GetStatusCode())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}

	var rt Retryable
	if errors.As(err, &rt) {
		return rt.IsRetryable()
	}
	return true
}

// StatusCoder is an error that carries an HTTP status code
type StatusCoder interface {
	GetStatusCode() int
}

// Retryable is implemented by errors that decide their own retry policy
type Retryable interface {
	IsRetryable() bool
}

// HTTPError is a failed HTTP response
type HTTPError struct {
	StatusCode int
	Status     string
	RetryAfter time.Duration
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

func (e HTTPError) GetStatusCode() int {
	return e.StatusCode
}

// NewHTTPError builds an HTTPError from a response status and its
// Retry-After header value
func NewHTTPError(statusCode int, status, retryAfter string) HTTPError {
	return HTTPError{
		StatusCode: statusCode,
		Status:     status,
		RetryAfter: ParseRetryAfter(retryAfter),
	}
}

// ParseRetryAfter reads a Retry-After value in seconds. HTTP dates and
// malformed values yield zero.
func ParseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
