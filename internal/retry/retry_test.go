package retry_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/internal/retry"
	"github.com/AntonStoeckl/library-circulation-go/internal/testutil/spies"
)

var errConnectionRefused = errors.New("connection refused")

func Test_Do_Success_NoRetries(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	// act
	result, err := retry.Do(context.Background(), fn)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, time.Duration(0), result.TotalDelay)
}

func Test_Do_RetriesUntilSuccess(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errConnectionRefused
		}
		return nil
	}

	// act
	result, err := retry.Do(context.Background(), fn, retry.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.Greater(t, result.TotalDelay, time.Duration(0))
}

func Test_Do_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return errConnectionRefused
	}

	// act
	result, err := retry.Do(context.Background(), fn, retry.WithMaxAttempts(3), retry.WithBaseDelay(0))

	// assert
	assert.ErrorIs(t, err, errConnectionRefused)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, result.Attempts)
}

func Test_Do_DoesNotRetryExcludedErrors(t *testing.T) {
	// arrange
	errPermanent := errors.New("authentication failed")
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return errPermanent
	}

	// act
	_, err := retry.Do(context.Background(), fn,
		retry.WithBaseDelay(0),
		retry.WithRetryIf(func(err error) bool { return !errors.Is(err, errPermanent) }))

	// assert
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, callCount)
}

func Test_Do_DoesNotRetryDeadlineExceeded(t *testing.T) {
	// arrange
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return context.DeadlineExceeded
	}

	// act
	_, err := retry.Do(context.Background(), fn, retry.WithBaseDelay(0))

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, callCount)
}

func Test_Do_StopsWhenContextIsCanceled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	fn := func(_ context.Context) error {
		cancel()
		return errConnectionRefused
	}

	// act
	result, err := retry.Do(ctx, fn, retry.WithBaseDelay(time.Second))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Attempts)
}

func Test_Do_LogsAndMeasuresRetries(t *testing.T) {
	// arrange
	logger, logSpy := spies.NewLogger()
	metricsSpy := spies.NewMetricsCollectorSpy()
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		if callCount < 2 {
			return errConnectionRefused
		}
		return nil
	}

	// act
	_, err := retry.Do(context.Background(), fn,
		retry.WithBaseDelay(time.Millisecond),
		retry.WithLogger(logger, "connect_postgres"),
		retry.WithMetrics(metricsSpy, "connect_postgres"))

	// assert
	require.NoError(t, err)
	assert.True(t, logSpy.HasLog(slog.LevelWarn, "retry: attempt failed, retrying").
		WithAttr("operation", "connect_postgres").
		WithAttr("error", errConnectionRefused.Error()).Assert())
	assert.Equal(t, 1, metricsSpy.HasCounterRecordForMetric(retry.RetryAttemptsMetric).WithOperation("connect_postgres").Count())
	assert.True(t, metricsSpy.HasDurationRecordForMetric(retry.RetryDelayMetric).WithLabel("attempt", "1").Assert())
}

func Test_Do_BackoffIsCapped(t *testing.T) {
	// arrange
	fn := func(_ context.Context) error { return errConnectionRefused }

	// act
	result, err := retry.Do(context.Background(), fn,
		retry.WithMaxAttempts(4),
		retry.WithBaseDelay(time.Hour),
		retry.WithMaxDelay(time.Millisecond))

	// assert
	assert.ErrorIs(t, err, errConnectionRefused)
	assert.Equal(t, 3*time.Millisecond, result.TotalDelay)
}

func Test_Do_RejectsInvalidOptions(t *testing.T) {
	testCases := []struct {
		name    string
		option  retry.Option
		wantErr error
	}{
		{"zero attempts", retry.WithMaxAttempts(0), retry.ErrInvalidMaxAttempts},
		{"negative base delay", retry.WithBaseDelay(-time.Second), retry.ErrNegativeDelay},
		{"negative max delay", retry.WithMaxDelay(-time.Second), retry.ErrNegativeDelay},
		{"jitter above one", retry.WithJitterFactor(1.5), retry.ErrInvalidJitterFactor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := retry.Do(context.Background(), func(context.Context) error { return nil }, tc.option)

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
