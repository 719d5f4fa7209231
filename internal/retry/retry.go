// Package retry runs an operation with exponential backoff, used to wait for dependencies
// such as PostgreSQL while a binary starts.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 200 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
	defaultJitterFactor = 0.3
)

// Metric names.
const (
	RetryAttemptsMetric = "retry_attempts_total"
	RetryDelayMetric    = "retry_delay_seconds"
)

const (
	logMsgRetrying   = "retry: attempt failed, retrying"
	logAttrOperation = "operation"
	logAttrAttempt   = "attempt"
	logAttrDelayMS   = "delay_ms"
	logAttrError     = "error"
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeDelay is returned when a delay is negative.
	ErrNegativeDelay = errors.New("delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// Func is an operation that can be retried.
type Func func(ctx context.Context) error

// Result describes a finished Do call.
type Result struct {
	Attempts   int
	TotalDelay time.Duration
}

type config struct {
	maxAttempts      int
	baseDelay        time.Duration
	maxDelay         time.Duration
	jitterFactor     float64
	retryIf          func(error) bool
	operation        string
	logger           lending.Logger
	metricsCollector lending.MetricsCollector
}

// Option configures Do.
type Option func(*config) error

// Do executes fn until it succeeds, returns a non-retryable error, or maxAttempts is reached.
//
// Retry schedule (default): 0, 200 ms, 400 ms, 800 ms, 1.6 s, 3.2 s (plus up to 30% jitter, capped at 5 s).
// By default every error except context cancellation and deadline is retried.
func Do(ctx context.Context, fn Func, options ...Option) (Result, error) {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		maxDelay:     defaultMaxDelay,
		jitterFactor: defaultJitterFactor,
		retryIf:      isRetryable,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return Result{}, err
		}
	}

	var result Result
	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.backoff(attempt)
			cfg.logRetry(attempt, delay, lastErr)
			cfg.recordDelay(attempt, delay)

			select {
			case <-time.After(delay):
				result.TotalDelay += delay
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		result.Attempts++

		lastErr = fn(ctx)
		if lastErr == nil {
			return result, nil
		}

		if !cfg.retryIf(lastErr) {
			return result, lastErr
		}
	}

	return result, lastErr
}

// backoff returns baseDelay * 2^(attempt-1) plus jitter, capped at maxDelay.
func (c *config) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	jitter := rand.Float64() * float64(delay) * c.jitterFactor //nolint:gosec // math/rand is sufficient for jitter
	delay += time.Duration(jitter)

	if delay > c.maxDelay {
		return c.maxDelay
	}

	return delay
}

func (c *config) logRetry(attempt int, delay time.Duration, err error) {
	if c.logger == nil {
		return
	}

	c.logger.Warn(logMsgRetrying,
		logAttrOperation, c.operation,
		logAttrAttempt, attempt,
		logAttrDelayMS, lending.ToMilliseconds(delay),
		logAttrError, err.Error(),
	)
}

func (c *config) recordDelay(attempt int, delay time.Duration) {
	if c.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		logAttrOperation: c.operation,
		logAttrAttempt:   strconv.Itoa(attempt),
	}

	c.metricsCollector.IncrementCounter(RetryAttemptsMetric, labels)
	c.metricsCollector.RecordDuration(RetryDelayMetric, delay, labels)
}

func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// WithMaxAttempts sets the maximum number of attempts, including the first.
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		c.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeDelay
		}

		c.baseDelay = delay

		return nil
	}
}

// WithMaxDelay caps a single backoff delay.
func WithMaxDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeDelay
		}

		c.maxDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter as a fraction of the backoff delay, from 0.0 to 1.0.
func WithJitterFactor(factor float64) Option {
	return func(c *config) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		c.jitterFactor = factor

		return nil
	}
}

// WithRetryIf replaces the retryable error predicate.
func WithRetryIf(retryIf func(error) bool) Option {
	return func(c *config) error {
		c.retryIf = retryIf
		return nil
	}
}

// WithLogger logs every retry at warn level, labeled with operation.
func WithLogger(logger lending.Logger, operation string) Option {
	return func(c *config) error {
		c.logger = logger
		c.operation = operation

		return nil
	}
}

// WithMetrics records retry attempts and delays, labeled with operation.
func WithMetrics(collector lending.MetricsCollector, operation string) Option {
	return func(c *config) error {
		c.metricsCollector = collector
		c.operation = operation

		return nil
	}
}
