package otelbridge

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Layer created by NewLayer.
type Option func(*Layer)

// WithTracer sets the OpenTelemetry tracer used to build exported spans. When
// not provided, the layer falls back to the globally registered tracer
// provider.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	layer := otelbridge.NewLayer(otelbridge.WithTracer(tp.Tracer("logspan")))
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Layer) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithLogger sets the slog logger the layer uses for its own diagnostics, such
// as unresolved follows-from declarations. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSpanKind sets the default kind for exported spans. Individual spans can
// still override it via the reserved KindKey attribute. Defaults to
// SpanKindInternal.
func WithSpanKind(kind trace.SpanKind) Option {
	return func(l *Layer) {
		l.kind = kind
	}
}

// NewLayer creates the bridge layer. Attach it (or the result of its
// WithCountingFilter) to a logspan pipeline.
func NewLayer(opts ...Option) *Layer {
	l := &Layer{
		tracer: otel.Tracer(instrumentationName),
		logger: slog.Default(),
		kind:   trace.SpanKindInternal,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}
