package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

// TracingCollector implements lending.TracingCollector on an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector starting spans with tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a span carrying attrs and returns the context holding it.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, lending.SpanContext) {
	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(attrs)...))

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan adds attrs, maps status to a span status and ends the span.
// Span contexts from other collectors are ignored.
func (t *TracingCollector) FinishSpan(spanCtx lending.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	otelSpanCtx.span.SetAttributes(attributes(attrs)...)
	otelSpanCtx.setSpanStatus(status)
	otelSpanCtx.span.End()
}

var _ lending.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements lending.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus maps status to a span status.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus maps the lending status values to span status codes.
// Precondition failures leave the status unset.
func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case lending.StatusSuccess:
		s.span.SetStatus(codes.Ok, "")
	case lending.StatusPreconditionFailed:
		s.span.SetAttributes(attribute.String(lending.LogAttrStatus, status))
	case lending.StatusRemoteError:
		s.span.SetStatus(codes.Error, "Remote store failed or rejected the request")
	case lending.StatusRefreshFailed:
		s.span.SetStatus(codes.Error, "Refresh after confirmed write failed")
	case lending.StatusCanceled:
		s.span.SetStatus(codes.Error, "Operation canceled")
	case lending.StatusTimeout:
		s.span.SetStatus(codes.Error, "Operation timed out")
	case lending.StatusError:
		s.span.SetStatus(codes.Error, "Operation failed")
	default:
		s.span.SetAttributes(attribute.String(lending.LogAttrStatus, status))
	}
}

var _ lending.SpanContext = (*OTelSpanContext)(nil)
