package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for query retry behavior.
var (
	dbRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_db_retries_total",
		Help: "Total query retry attempts by operation",
	}, []string{"operation"})

	dbRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orderdesk_db_retry_backoff_seconds",
		Help:    "Backoff duration before query retries by operation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"})

	dbRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdesk_db_retry_exhausted_total",
		Help: "Total queries that exhausted all retry attempts by operation",
	}, []string{"operation"})
)

// ErrRetryExhausted is returned when a transient database failure persists
// through every retry attempt. It surfaces to the API boundary as a generic
// server error.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryConfig bounds the transient-failure retry loop around queries.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff growth.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the standard bounded retry policy for queries.
// Backoffs stay short: a page fetch is request-scoped and the caller's HTTP
// client is waiting.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    50 * time.Millisecond,
		MaxBackoff:        1 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// isTransient classifies an error as worth retrying. Serialization failures,
// deadlocks, and connection-level errors are transient; everything else
// (constraint violations, syntax errors, cancelled contexts) is permanent.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001": // serialization_failure
			return true
		case pgErr.Code == "40P01": // deadlock_detected
			return true
		case pgErr.Code == "57P01": // admin_shutdown (pool will reconnect)
			return true
		case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
			return true
		default:
			return false
		}
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// withRetry runs fn with the store's bounded retry policy. Only transient
// errors are retried; the operation name labels metrics and logs.
func (s *Store) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	config := s.retry

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				s.logger.Info().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("Query succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !isTransient(err) {
			return lastErr
		}
		if attempt >= config.MaxAttempts {
			break
		}

		dbRetriesTotal.WithLabelValues(operation).Inc()

		// Jitter (±20%) keeps concurrent handlers from retrying in lockstep.
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		dbRetryBackoffSeconds.WithLabelValues(operation).Observe(jitter.Seconds())

		s.logger.Debug().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying query after transient failure")

		select {
		case <-ctx.Done():
			return fmt.Errorf("query %s: %w", operation, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	dbRetryExhaustedTotal.WithLabelValues(operation).Inc()
	s.logger.Warn().
		Err(lastErr).
		Str("operation", operation).
		Int("max_attempts", config.MaxAttempts).
		Msg("Query retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
