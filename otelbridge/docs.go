// Package otelbridge exports logspan spans as OpenTelemetry trace spans.
//
// The bridge is a logspan.Layer. For every log span it keeps a state holder in
// the span's extension slot: first a builder accumulating attributes, the
// parent linkage, and any follows-from links, and later, once something needs
// to read the span's trace identity, the activated OpenTelemetry context
// carrying the live SDK span. Activation is lazy, happens at most once, and is
// never reversed. On close the finished span is handed to whatever exporter
// the configured tracer's provider uses.
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	layer := otelbridge.NewLayer(otelbridge.WithTracer(tp.Tracer("logspan")))
//	pipe := logspan.New(layer.WithCountingFilter(otelbridge.LevelFilter(slog.LevelWarn)))
//
// The counting filter (WithCountingFilter) counts every event delivered to a
// span but records only the events its filter approves, so high-volume logs
// can be summarized on the exported span instead of shipped wholesale. The
// total lands in the logspan.event_count attribute at close.
//
// Observers that compose independently of this layer can recover the activated
// context of the current span through ContextFromSpan without referencing the
// layer itself; the operation is advertised as a capability on the pipeline
// handle.
package otelbridge
