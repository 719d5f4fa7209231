package remote

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// Operation names of the remote API, used as RemoteError.Op and as labels.
const (
	OpCreateBook    = "create_book"
	OpIssue         = "issue"
	OpReturn        = "return"
	OpDeleteBook    = "delete_book"
	OpListBooks     = "list_books"
	OpListLoans     = "list_loans"
	OpResetPassword = "reset_password"
	OpLogin         = "login"
)

const (
	// RequestDurationMetric tracks remote request duration.
	RequestDurationMetric = "gateway_request_duration_seconds"
	// RequestsMetric tracks total remote requests.
	RequestsMetric = "gateway_requests_total"
	// RequestErrorsMetric tracks failed remote requests.
	RequestErrorsMetric = "gateway_request_errors_total"

	// SpanNameRequest is the tracing span name for a remote request.
	SpanNameRequest = "gateway.request"

	// LogMsgRequestCompleted is logged for every 2xx response.
	LogMsgRequestCompleted = "gateway request completed"
	// LogMsgRequestFailed is logged for transport failures and non-2xx responses.
	LogMsgRequestFailed = "gateway request failed"

	// LogAttrOperation identifies the remote operation.
	LogAttrOperation = "operation"
	// LogAttrMethod is the HTTP method.
	LogAttrMethod = "method"
	// LogAttrPath is the request path below the base URL.
	LogAttrPath = "path"
	// LogAttrStatusCode is the HTTP status code, 0 for transport failures.
	LogAttrStatusCode = "status_code"
	// LogAttrStatus is "success" or "error".
	LogAttrStatus = "status"
	// LogAttrDurationMS is the request duration in milliseconds.
	LogAttrDurationMS = "duration_ms"
	// LogAttrError contains error details.
	LogAttrError = "error"
)

func (c *Client) startSpan(ctx context.Context, op, method, path string) (context.Context, lending.SpanContext) {
	if c.tracingCollector == nil {
		return ctx, nil
	}

	return c.tracingCollector.StartSpan(ctx, SpanNameRequest, map[string]string{
		LogAttrOperation: op,
		LogAttrMethod:    method,
		LogAttrPath:      path,
	})
}

func (c *Client) observe(
	ctx context.Context,
	span lending.SpanContext,
	op, method string,
	statusCode int,
	duration time.Duration,
	err error,
) {

	status := lending.StatusSuccess
	if err != nil {
		status = lending.StatusError
	}

	labels := map[string]string{
		LogAttrOperation:  op,
		LogAttrMethod:     method,
		LogAttrStatusCode: strconv.Itoa(statusCode),
	}

	c.recordMetrics(ctx, labels, duration, err != nil)

	if c.tracingCollector != nil && span != nil {
		attrs := map[string]string{
			LogAttrStatusCode: strconv.Itoa(statusCode),
			LogAttrDurationMS: fmt.Sprintf("%.2f", lending.ToMilliseconds(duration)),
		}

		if err != nil {
			attrs[LogAttrError] = err.Error()
		}

		c.tracingCollector.FinishSpan(span, status, attrs)
	}

	args := []any{
		LogAttrOperation, op,
		LogAttrMethod, method,
		LogAttrStatusCode, statusCode,
		LogAttrDurationMS, lending.ToMilliseconds(duration),
	}

	if err == nil {
		if c.contextualLogger != nil {
			c.contextualLogger.DebugContext(ctx, LogMsgRequestCompleted, args...)
		} else if c.logger != nil {
			c.logger.Debug(LogMsgRequestCompleted, args...)
		}

		return
	}

	args = append(args, LogAttrError, err.Error())

	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, LogMsgRequestFailed, args...)
	} else if c.logger != nil {
		c.logger.Error(LogMsgRequestFailed, args...)
	}
}

func (c *Client) recordMetrics(ctx context.Context, labels map[string]string, duration time.Duration, failed bool) {
	if c.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := c.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, RequestDurationMetric, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, RequestsMetric, labels)

		if failed {
			contextualCollector.IncrementCounterContext(ctx, RequestErrorsMetric, labels)
		}

		return
	}

	c.metricsCollector.RecordDuration(RequestDurationMetric, duration, labels)
	c.metricsCollector.IncrementCounter(RequestsMetric, labels)

	if failed {
		c.metricsCollector.IncrementCounter(RequestErrorsMetric, labels)
	}
}
