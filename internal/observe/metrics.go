// Package observe provides application-wide observability primitives for
// deskscribe: OpenTelemetry metrics, tracing, iteration-scoped logging, and
// HTTP middleware for the status listener.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all deskscribe metrics.
const meterName = "github.com/MrWong99/deskscribe"

// Iteration outcomes used as the "status" attribute of [Metrics.Iterations].
const (
	StatusOK           = "ok"
	StatusCaptureError = "capture_error"
	StatusDescribeErr  = "describe_error"
	StatusPersistError = "persist_error"
)

// Audio segment events used as the "event" attribute of [Metrics.AudioSegments].
const (
	SegmentOpened     = "opened"
	SegmentFinalized  = "finalized"
	SegmentOpenFailed = "open_failed"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per loop stage ---

	// CaptureDuration tracks screenshot grab + PNG encode + write latency.
	CaptureDuration metric.Float64Histogram

	// DescribeDuration tracks the vision request round trip. Use with
	// attribute.String("provider", ...).
	DescribeDuration metric.Float64Histogram

	// IterationDuration tracks one full capture/describe/persist pass.
	IterationDuration metric.Float64Histogram

	// --- Counters ---

	// Iterations counts finished iterations by outcome. Use with
	//   attribute.String("status", ...)
	Iterations metric.Int64Counter

	// ProviderRequests counts vision API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts vision errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// AudioSegments counts WAV segment lifecycle events. Use with
	//   attribute.String("event", ...)
	AudioSegments metric.Int64Counter

	// AudioSamples counts samples written to segments.
	AudioSamples metric.Int64Counter

	// --- Gauges ---

	// AudioRecording is 1 while the recorder has an input stream running.
	AudioRecording metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks status listener request time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Vision
// requests routinely take several seconds, so the upper end is generous.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.CaptureDuration, err = m.Float64Histogram("deskscribe.capture.duration",
		metric.WithDescription("Latency of screenshot capture and PNG write."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DescribeDuration, err = m.Float64Histogram("deskscribe.describe.duration",
		metric.WithDescription("Latency of the vision description request."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.IterationDuration, err = m.Float64Histogram("deskscribe.iteration.duration",
		metric.WithDescription("Duration of one capture/describe/persist iteration."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Iterations, err = m.Int64Counter("deskscribe.iterations",
		metric.WithDescription("Total loop iterations by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("deskscribe.provider.requests",
		metric.WithDescription("Total vision requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("deskscribe.provider.errors",
		metric.WithDescription("Total vision errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.AudioSegments, err = m.Int64Counter("deskscribe.audio.segments",
		metric.WithDescription("Audio segment lifecycle events."),
	); err != nil {
		return nil, err
	}
	if met.AudioSamples, err = m.Int64Counter("deskscribe.audio.samples",
		metric.WithDescription("Audio samples written to WAV segments."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.AudioRecording, err = m.Int64UpDownCounter("deskscribe.audio.recording",
		metric.WithDescription("1 while an audio input stream is running."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("deskscribe.http.request.duration",
		metric.WithDescription("Status listener request latency by method and path."),
		metric.WithUnit("s"),
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordIteration records one finished iteration with its outcome and
// duration.
func (m *Metrics) RecordIteration(ctx context.Context, status string, d time.Duration) {
	m.Iterations.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.IterationDuration.Record(ctx, d.Seconds())
}

// RecordProviderRequest records a vision request counter increment and its
// latency.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string, d time.Duration) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
	m.DescribeDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("provider", provider)),
	)
}

// RecordProviderError records a vision error counter increment. kind is one
// of "transport", "remote" or "no_description".
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordSegment records an audio segment lifecycle event. samples is added
// to [Metrics.AudioSamples] and is only meaningful for finalized segments.
func (m *Metrics) RecordSegment(ctx context.Context, event string, samples int64) {
	m.AudioSegments.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	if samples > 0 {
		m.AudioSamples.Add(ctx, samples)
	}
}
