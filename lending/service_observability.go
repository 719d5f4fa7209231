package lending

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Operation names used as labels in logs, metrics, and spans.
const (
	OperationAddBook          = "add_book"
	OperationIssueBook        = "issue_book"
	OperationReturnBook       = "return_book"
	OperationDeleteBook       = "delete_book"
	OperationRefresh          = "refresh"
	OperationRefreshCatalog   = "refresh_catalog"
	OperationRefreshLoans     = "refresh_loans"
	OperationResetCredentials = "reset_credentials"
	OperationLogin            = "login"
)

const (
	// OperationDurationMetric tracks Service operation duration (OpenTelemetry-compatible).
	OperationDurationMetric = "lending_operation_duration_seconds"
	// OperationCallsMetric tracks total Service operation calls.
	OperationCallsMetric = "lending_operation_calls_total"
	// StaleRefreshDiscardedMetric tracks refresh responses that were older than the cached state.
	StaleRefreshDiscardedMetric = "lending_stale_refresh_discarded_total"

	// StatusSuccess indicates a confirmed operation.
	StatusSuccess = "success"
	// StatusPreconditionFailed indicates a local rejection; the remote store was not contacted.
	StatusPreconditionFailed = "precondition_failed"
	// StatusRemoteError indicates the remote store rejected the operation or was unreachable.
	StatusRemoteError = "remote_error"
	// StatusRefreshFailed indicates a confirmed write whose follow-up refresh failed.
	StatusRefreshFailed = "refresh_failed"
	// StatusCanceled indicates context cancellation.
	StatusCanceled = "canceled"
	// StatusTimeout indicates a context deadline was exceeded.
	StatusTimeout = "timeout"
	// StatusError indicates any other failure.
	StatusError = "error"

	// LogMsgOperationStarted is logged when an operation begins.
	LogMsgOperationStarted = "lending operation started"
	// LogMsgOperationCompleted is logged when an operation succeeds.
	LogMsgOperationCompleted = "lending operation completed"
	// LogMsgOperationRejected is logged when an operation fails a local precondition.
	LogMsgOperationRejected = "lending operation rejected"
	// LogMsgOperationFailed is logged when an operation fails remotely.
	LogMsgOperationFailed = "lending operation failed"
	// LogMsgStaleRefreshDiscarded is logged when a refresh response is dropped.
	LogMsgStaleRefreshDiscarded = "stale refresh discarded"

	// LogAttrOperation identifies the operation in logs.
	LogAttrOperation = "operation"
	// LogAttrStatus indicates the operation status.
	LogAttrStatus = "status"
	// LogAttrDurationMS indicates the duration in milliseconds.
	LogAttrDurationMS = "duration_ms"
	// LogAttrError contains error details.
	LogAttrError = "error"
	// LogAttrTicket is the sequence number of a refresh.
	LogAttrTicket = "ticket"

	// SpanNameOperation is the tracing span name for Service operations.
	SpanNameOperation = "lending.operation"
)

// observe runs fn with a span, start/outcome log records, and duration/call metrics.
func (s *Service) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := s.startSpan(ctx, operation)
	s.logStart(ctx, operation)

	err := fn(ctx)

	duration := time.Since(start)
	status := ClassifyStatus(err)

	s.recordMetrics(ctx, operation, status, duration)
	s.finishSpan(span, status, duration, err)
	s.logOutcome(ctx, operation, status, duration, err)

	return err
}

// ClassifyStatus maps an operation error to one of the Status* values.
func ClassifyStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, ErrRefreshFailed):
		return StatusRefreshFailed
	case IsPreconditionError(err):
		return StatusPreconditionFailed
	case IsRemoteError(err):
		return StatusRemoteError
	default:
		return StatusError
	}
}

// BuildOperationLabels creates standard metric labels for Service operations.
func BuildOperationLabels(operation, status string) map[string]string {
	return map[string]string{
		LogAttrOperation: operation,
		LogAttrStatus:    status,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds with precision.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

func (s *Service) recordMetrics(ctx context.Context, operation, status string, duration time.Duration) {
	if s.metricsCollector == nil {
		return
	}

	labels := BuildOperationLabels(operation, status)

	if contextualCollector, ok := s.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, OperationDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, OperationCallsMetric, labels)
		return
	}

	s.metricsCollector.RecordDuration(OperationDurationMetric, duration, labels)
	s.metricsCollector.IncrementCounter(OperationCallsMetric, labels)
}

func (s *Service) startSpan(ctx context.Context, operation string) (context.Context, SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, SpanNameOperation, map[string]string{LogAttrOperation: operation})
}

func (s *Service) finishSpan(span SpanContext, status string, duration time.Duration, err error) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	s.tracingCollector.FinishSpan(span, status, attrs)
}

func (s *Service) logStart(ctx context.Context, operation string) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, LogMsgOperationStarted, LogAttrOperation, operation)
	} else if s.logger != nil {
		s.logger.Info(LogMsgOperationStarted, LogAttrOperation, operation)
	}
}

func (s *Service) logOutcome(ctx context.Context, operation, status string, duration time.Duration, err error) {
	args := []any{
		LogAttrOperation, operation,
		LogAttrStatus, status,
		LogAttrDurationMS, ToMilliseconds(duration),
	}

	if err != nil {
		args = append(args, LogAttrError, err.Error())
	}

	switch status {
	case StatusSuccess:
		s.logInfo(ctx, LogMsgOperationCompleted, args...)
	case StatusPreconditionFailed, StatusRefreshFailed, StatusCanceled:
		s.logWarn(ctx, LogMsgOperationRejected, args...)
	default:
		s.logError(ctx, LogMsgOperationFailed, args...)
	}
}

// logStaleRefresh is called with the Service lock held.
func (s *Service) logStaleRefresh(ctx context.Context, operation string, ticket uint64) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, LogMsgStaleRefreshDiscarded, LogAttrOperation, operation, LogAttrTicket, ticket)
	} else if s.logger != nil {
		s.logger.Debug(LogMsgStaleRefreshDiscarded, LogAttrOperation, operation, LogAttrTicket, ticket)
	}

	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{LogAttrOperation: operation}

	if contextualCollector, ok := s.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, StaleRefreshDiscardedMetric, labels)
	} else {
		s.metricsCollector.IncrementCounter(StaleRefreshDiscardedMetric, labels)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Service) logError(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, args...)
	} else if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
