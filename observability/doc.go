// Package observability wires OpenTelemetry tracing and metrics for pipeline
// runs and comparisons.
//
// Both exporters speak OTLP over HTTP and stay disabled until an endpoint is
// configured; without one the global no-op providers remain in place and
// every instrument call is free.
//
//	shutdown, err := observability.Setup(ctx, observability.Config{
//	    ServiceName: "abcompare",
//	    Tracing:     observability.TracerConfig{Endpoint: "localhost:4318", Insecure: true},
//	})
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
//	defer span.End()
package observability
