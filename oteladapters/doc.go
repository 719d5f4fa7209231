// Package oteladapters provides OpenTelemetry implementations of the lending observability
// interfaces, so the lending service, the gateway client and the stores can report through
// an OpenTelemetry SDK without further glue code.
//
// Usage example:
//
//	svc := lending.NewService(client,
//		lending.WithContextualLogger(oteladapters.NewSlogBridgeLogger("circulation")),
//		lending.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("circulation"))),
//		lending.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("circulation"))),
//	)
package oteladapters
