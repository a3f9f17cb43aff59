// Package observability wires OpenTelemetry tracing and metrics exported
// over OTLP/HTTP.
//
// Both providers are optional. When disabled, the global no-op providers stay
// in place, so spans and instruments created by other packages cost nothing.
//
//	tp, err := observability.InitTracer(ctx, observability.TracerConfig{...})
//	defer tp.Shutdown(ctx)
//
//	m, err := observability.NewMetrics(observability.Meter("pingproxy"))
//	m.RecordOperation(ctx, "consul-integration-demo", "discover", "ok", d)
package observability
