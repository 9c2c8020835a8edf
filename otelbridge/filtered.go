package otelbridge

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/amp-labs/amp-spanbridge/logspan"
)

// EventCountKey is the attribute a FilteredLayer records on every span at
// close: the total number of events delivered to the span while it was open,
// including events the filter suppressed.
const EventCountKey = attribute.Key("logspan.event_count")

// Filter decides whether an event is worth recording as a span event. The
// decision does not affect counting: every delivered event is counted first.
type Filter interface {
	Enabled(event *logspan.Event) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(event *logspan.Event) bool

// Enabled implements Filter.
func (f FilterFunc) Enabled(event *logspan.Event) bool {
	return f(event)
}

// LevelFilter returns a Filter that approves events at min or above.
func LevelFilter(min slog.Level) Filter {
	return FilterFunc(func(event *logspan.Event) bool {
		return event.Level >= min
	})
}

// eventCount is the per-span counter kept in the span's extension slot. It is
// created lazily on the first event and consumed exactly once at close.
type eventCount struct {
	n int64
}

// FilteredLayer wraps a bridge Layer, discarding the events its Filter
// rejects while still counting them. This is useful when the event volume is
// too high to export wholesale but "how much was logged here" must survive on
// the span. Built via Layer.WithCountingFilter.
//
// Every hook other than OnEvent and OnClose is a pure delegation, including
// OnAttach, so the wrapped layer's capability advertisement is preserved.
type FilteredLayer struct {
	inner  *Layer
	filter Filter
}

var _ logspan.Layer = (*FilteredLayer)(nil)

// WithCountingFilter wraps the layer in a FilteredLayer using the given
// filter. A nil filter approves everything, which still enables counting.
func (l *Layer) WithCountingFilter(filter Filter) *FilteredLayer {
	if filter == nil {
		filter = FilterFunc(func(*logspan.Event) bool { return true })
	}

	return &FilteredLayer{inner: l, filter: filter}
}

// OnAttach delegates to the wrapped layer.
func (f *FilteredLayer) OnAttach(p *logspan.Pipeline) {
	f.inner.OnAttach(p)
}

// OnNewSpan delegates to the wrapped layer.
func (f *FilteredLayer) OnNewSpan(span *logspan.Span, parent *logspan.Span, ctx context.Context, attrs []attribute.KeyValue) {
	f.inner.OnNewSpan(span, parent, ctx, attrs)
}

// OnRecord delegates to the wrapped layer.
func (f *FilteredLayer) OnRecord(span *logspan.Span, attrs []attribute.KeyValue) {
	f.inner.OnRecord(span, attrs)
}

// OnFollowsFrom delegates to the wrapped layer.
func (f *FilteredLayer) OnFollowsFrom(span *logspan.Span, follows logspan.SpanID) {
	f.inner.OnFollowsFrom(span, follows)
}

// OnEvent counts the event against its span before the filter runs, so
// suppressed events are never lost from the total, and forwards it only when
// the filter approves.
func (f *FilteredLayer) OnEvent(event *logspan.Event, scope *logspan.Span) {
	if scope == nil {
		return
	}

	scope.WithExtensions(func(ext *logspan.Extensions) {
		if count, ok := logspan.GetExt[eventCount](ext); ok {
			count.n++
		} else {
			logspan.InsertExt(ext, &eventCount{n: 1})
		}
	})

	if f.filter.Enabled(event) {
		eventsForwarded.Inc()
		f.inner.OnEvent(event, scope)
	} else {
		eventsSuppressed.Inc()
	}
}

// OnEnter delegates to the wrapped layer.
func (f *FilteredLayer) OnEnter(span *logspan.Span) {
	f.inner.OnEnter(span)
}

// OnExit delegates to the wrapped layer.
func (f *FilteredLayer) OnExit(span *logspan.Span) {
	f.inner.OnExit(span)
}

// OnClose consumes the span's event counter, records the total under
// EventCountKey on whichever variant the state holder is in, and then
// delegates the close to the wrapped layer. The total covers forwarded and
// suppressed events alike; a span that saw no events records zero.
func (f *FilteredLayer) OnClose(span *logspan.Span) {
	span.WithExtensions(func(ext *logspan.Extensions) {
		var total int64

		if count, ok := logspan.RemoveExt[eventCount](ext); ok {
			total = count.n
		}

		state, ok := logspan.GetExt[spanState](ext)
		if !ok {
			return
		}

		state.variantOrPanic()

		kv := EventCountKey.Int64(total)

		if state.pending != nil {
			state.pending.attrs = append(state.pending.attrs, kv)
		} else {
			state.active.span().SetAttributes(kv)
		}
	})

	f.inner.OnClose(span)
}
