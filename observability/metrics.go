package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names.
const (
	MetricUpstreamRequests = "upstream.requests"
	MetricUpstreamDuration = "upstream.request.duration"
	MetricUpstreamErrors   = "upstream.errors"
)

// Metrics counts calls this service makes to its dependencies: registry
// lookups and forwarded requests. A nil *Metrics records nothing.
type Metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var errs [3]error
	m.requests, errs[0] = meter.Int64Counter(MetricUpstreamRequests,
		metric.WithDescription("Calls to upstream dependencies"))
	m.duration, errs[1] = meter.Float64Histogram(MetricUpstreamDuration,
		metric.WithDescription("Upstream call latency"),
		metric.WithUnit("s"))
	m.failures, errs[2] = meter.Int64Counter(MetricUpstreamErrors,
		metric.WithDescription("Failed upstream calls by error code"))
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation records one call to service. status is "ok" or "error".
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, took time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("operation", operation),
	}
	m.duration.Record(ctx, took.Seconds(), metric.WithAttributes(attrs...))
	m.requests.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("status", status))...))
}

// RecordError counts a failure by error code and the component that saw it.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
