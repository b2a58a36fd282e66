// Package observe provides observability primitives for voxsight:
// OpenTelemetry metrics with a Prometheus exporter bridge so the pipeline
// can be scraped via a standard /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxsight metrics.
const meterName = "github.com/voxsight/voxsight"

// Metrics holds all OpenTelemetry metric instruments for the interpretation
// pipeline. All fields are safe for concurrent use — the underlying OTel
// types handle their own synchronisation.
type Metrics struct {
	// InferenceDuration tracks remote inference call latency.
	InferenceDuration metric.Float64Histogram

	// ResolveDuration tracks entity resolution latency against the object
	// database.
	ResolveDuration metric.Float64Histogram

	// Transcripts counts transcript updates received from the capture layer.
	Transcripts metric.Int64Counter

	// InferenceRequests counts inference calls. Use with attributes:
	//   attribute.String("status", "ok"|"network_error"|"decode_error"|"stale")
	InferenceRequests metric.Int64Counter

	// Dispatches counts dispatch decisions. Use with attributes:
	//   attribute.String("action", ...), attribute.String("status", "dispatched"|"below_threshold"|"no_targets")
	Dispatches metric.Int64Counter

	// ActiveSessions tracks the number of live listening sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks request latency for the server's HTTP
	// surface (health, metrics).
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// local resolution work at the low end and remote inference at the high end.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.InferenceDuration, err = m.Float64Histogram("voxsight.inference.duration",
		metric.WithDescription("Latency of remote inference calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ResolveDuration, err = m.Float64Histogram("voxsight.resolve.duration",
		metric.WithDescription("Latency of entity resolution against the object database."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Transcripts, err = m.Int64Counter("voxsight.transcripts",
		metric.WithDescription("Total transcript updates received from the capture layer."),
	); err != nil {
		return nil, err
	}
	if met.InferenceRequests, err = m.Int64Counter("voxsight.inference.requests",
		metric.WithDescription("Total inference calls by status."),
	); err != nil {
		return nil, err
	}
	if met.Dispatches, err = m.Int64Counter("voxsight.dispatches",
		metric.WithDescription("Total dispatch decisions by action and status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxsight.active_sessions",
		metric.WithDescription("Number of live listening sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxsight.http.request.duration",
		metric.WithDescription("Latency of HTTP requests served by voxsight."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordInference records one inference call outcome.
func (m *Metrics) RecordInference(ctx context.Context, status string, seconds float64) {
	m.InferenceRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	m.InferenceDuration.Record(ctx, seconds)
}

// RecordDispatch records one dispatch decision.
func (m *Metrics) RecordDispatch(ctx context.Context, action, status string) {
	m.Dispatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("status", status),
		),
	)
}
