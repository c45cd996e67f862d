package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the deskscribe tracer.
const tracerName = "github.com/MrWong99/deskscribe"

type iterationKey struct{}

// Tracer returns the package-level [trace.Tracer]. It uses the globally
// registered [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span and returns the updated context and span. The
// caller must call span.End() when done.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// WithIteration returns a copy of ctx carrying the capture iteration ID.
// [Logger] adds it to every record logged with that context.
func WithIteration(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, iterationKey{}, id)
}

// IterationID returns the iteration ID stored by [WithIteration], or "".
func IterationID(ctx context.Context) string {
	id, _ := ctx.Value(iterationKey{}).(string)
	return id
}

// CorrelationID extracts the trace ID from the OTel span context in ctx.
// Returns the empty string when no active span with a valid trace ID exists.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns an [slog.Logger] enriched with the iteration ID and the
// trace_id/span_id of the active span in ctx. Without either, it is the
// default slog logger.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if id := IterationID(ctx); id != "" {
		l = l.With(slog.String("iteration", id))
	}
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
