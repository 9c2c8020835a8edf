package otelbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/amp-labs/amp-spanbridge/logspan"
)

// instrumentationName is the tracer name used when no tracer is configured.
const instrumentationName = "github.com/amp-labs/amp-spanbridge/otelbridge"

// levelKey is the attribute carrying an event's severity on the recorded span
// event.
const levelKey = attribute.Key("log.level")

// ErrInvalidParentContext is returned when a span was created from a context
// carrying a malformed remote span context. The condition is recoverable: the
// caller can log it and continue, and on close the span is still exported as a
// root span so the record is not lost.
var ErrInvalidParentContext = errors.New("invalid parent span context")

// Layer bridges logspan spans to OpenTelemetry. It implements logspan.Layer;
// see the package documentation for the state model.
type Layer struct {
	tracer trace.Tracer
	logger *slog.Logger
	kind   trace.SpanKind
}

var _ logspan.Layer = (*Layer)(nil)

// OnAttach registers the context-bridge capability on the pipeline so that
// observers can recover activated contexts without referencing this type.
func (l *Layer) OnAttach(p *logspan.Pipeline) {
	p.RegisterCapability(withContextKey{}, withContext(l.activatedContextLocked))
}

// OnNewSpan installs the pending state holder. No OpenTelemetry span is built
// yet; the builder only captures what activation will need.
func (l *Layer) OnNewSpan(span *logspan.Span, parent *logspan.Span, ctx context.Context, attrs []attribute.KeyValue) {
	builder := &spanBuilder{
		name:      span.Name(),
		kind:      l.kind,
		startTime: span.StartTime(),
		parent:    parent,
	}

	if parent == nil {
		if sc := trace.SpanContextFromContext(ctx); !sc.Equal(trace.SpanContext{}) {
			builder.remote = sc
			builder.hasRemote = true
		}
	}

	builder.apply(attrs)

	span.WithExtensions(func(ext *logspan.Extensions) {
		logspan.InsertExt(ext, &spanState{pending: builder})
	})
}

// OnRecord routes attributes to whichever variant the span is in: the builder
// before activation, the live span after. The two paths never coexist for one
// span.
func (l *Layer) OnRecord(span *logspan.Span, attrs []attribute.KeyValue) {
	span.WithExtensions(func(ext *logspan.Extensions) {
		state, ok := logspan.GetExt[spanState](ext)
		if !ok {
			return
		}

		state.variantOrPanic()

		if state.pending != nil {
			state.pending.apply(attrs)
		} else {
			applyLive(state.active.span(), attrs)
		}
	})
}

// OnFollowsFrom links span to the span identified by follows. The followed
// span's identity requires activation, so its context is finalized first if it
// is still pending. A followed span that has already been closed and removed
// is an expected outcome and resolves as a no-op.
func (l *Layer) OnFollowsFrom(span *logspan.Span, follows logspan.SpanID) {
	followed, ok := span.Pipeline().Span(follows)
	if !ok {
		followsFromUnresolved.Inc()
		l.logger.Debug("follows-from target already closed", "span", span.Name(), "follows", follows)

		return
	}

	// Locks only the followed span's slot here, and the declaring span's slot
	// afterwards, never both at once.
	var (
		followedCtx context.Context
		err         error
	)

	followed.WithExtensions(func(ext *logspan.Extensions) {
		followedCtx, err = l.activatedContextLocked(ext)
	})

	if err != nil || followedCtx == nil {
		followsFromUnresolved.Inc()
		l.logger.Debug("follows-from target not activatable", "span", span.Name(), "follows", follows, "error", err)

		return
	}

	link := trace.Link{SpanContext: trace.SpanContextFromContext(followedCtx)}

	span.WithExtensions(func(ext *logspan.Extensions) {
		state, ok := logspan.GetExt[spanState](ext)
		if !ok {
			return
		}

		state.variantOrPanic()

		if state.pending != nil {
			state.pending.links = append(state.pending.links, link)
		} else {
			state.active.span().AddLink(link)
		}
	})
}

// OnEvent records the event on its span: buffered on the builder before
// activation, as a live span event after. Events at error level or above also
// mark the span's status as Error.
func (l *Layer) OnEvent(event *logspan.Event, scope *logspan.Span) {
	if scope == nil {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(event.Attributes)+1)
	attrs = append(attrs, levelKey.String(event.Level.String()))
	attrs = append(attrs, event.Attributes...)

	failed := event.Level >= slog.LevelError

	scope.WithExtensions(func(ext *logspan.Extensions) {
		state, ok := logspan.GetExt[spanState](ext)
		if !ok {
			return
		}

		state.variantOrPanic()

		if state.pending != nil {
			state.pending.events = append(state.pending.events, pendingEvent{
				name:  event.Message,
				time:  event.Time,
				attrs: attrs,
			})
			if failed {
				state.pending.statusSet = true
				state.pending.status = codes.Error
				state.pending.statusDesc = event.Message
			}

			return
		}

		span := state.active.span()
		span.AddEvent(event.Message,
			trace.WithTimestamp(event.Time),
			trace.WithAttributes(attrs...),
		)

		if failed {
			span.SetStatus(codes.Error, event.Message)
		}
	})
}

// OnEnter activates the span's context if it is still pending, so that code
// running inside the span observes a live trace identity.
func (l *Layer) OnEnter(span *logspan.Span) {
	var err error

	span.WithExtensions(func(ext *logspan.Extensions) {
		_, err = l.activatedContextLocked(ext)
	})

	if err != nil {
		l.logger.Warn("span entered with invalid parent context", "span", span.Name(), "error", err)
	}
}

// OnExit is a no-op; the exported span's lifetime is bounded by close, not by
// enter and exit pairs.
func (l *Layer) OnExit(*logspan.Span) {}

// OnClose consumes the state holder and hands the finished span to the SDK.
// Only the extraction happens under the span's lock; building and ending the
// span, the path that reaches the exporter, runs after the lock is released so
// a slow exporter cannot block the span's neighbors.
func (l *Layer) OnClose(span *logspan.Span) {
	endTime := time.Now()

	var state *spanState

	span.WithExtensions(func(ext *logspan.Extensions) {
		state, _ = logspan.RemoveExt[spanState](ext)
	})

	if state == nil {
		return
	}

	state.variantOrPanic()

	if state.pending != nil {
		cx, err := l.activate(state.pending)
		if err != nil {
			l.logger.Warn("exporting span as a new root: parent context invalid",
				"span", span.Name(), "error", err)

			state.pending.remote = trace.SpanContext{}
			state.pending.hasRemote = false
			cx, _ = l.activate(state.pending)
		}

		state.active = &activeContext{ctx: cx}
		state.pending = nil
	}

	state.active.span().End(trace.WithTimestamp(endTime))
	spansExported.Inc()
}

// activatedContextLocked is the finalize-if-needed read of a span's activated
// context. It must be called with the span's extension lock held (inside
// WithExtensions). Returns (nil, nil) when the span carries no state holder,
// the existing context when already activated, and otherwise performs the
// one-way pending -> active transition.
func (l *Layer) activatedContextLocked(ext *logspan.Extensions) (context.Context, error) {
	state, ok := logspan.GetExt[spanState](ext)
	if !ok {
		return nil, nil
	}

	state.variantOrPanic()

	if state.active != nil {
		return state.active.ctx, nil
	}

	cx, err := l.activate(state.pending)
	if err != nil {
		return nil, err
	}

	// Move-and-replace: the builder is consumed, the activated variant takes
	// its place, and no later operation reverses this.
	state.active = &activeContext{ctx: cx}
	state.pending = nil

	return cx, nil
}

// activate builds the OpenTelemetry span described by the builder. The
// in-process parent is activated first when needed; locks are therefore always
// taken rootward along the parent chain, which is acyclic.
func (l *Layer) activate(builder *spanBuilder) (context.Context, error) {
	parentCtx := context.Background()

	switch {
	case builder.parent != nil:
		var (
			cx  context.Context
			err error
		)

		builder.parent.WithExtensions(func(ext *logspan.Extensions) {
			cx, err = l.activatedContextLocked(ext)
		})

		if err == nil && cx != nil {
			parentCtx = cx
		}
		// A parent whose state holder is already gone was closed before this
		// span activated; the span starts a new trace rather than failing.
	case builder.hasRemote && !builder.remote.IsValid():
		return nil, fmt.Errorf("%w: trace %s, span %s",
			ErrInvalidParentContext, builder.remote.TraceID(), builder.remote.SpanID())
	case builder.hasRemote:
		parentCtx = trace.ContextWithRemoteSpanContext(parentCtx, builder.remote)
	}

	cx, span := l.tracer.Start(parentCtx, builder.name,
		trace.WithSpanKind(builder.kind),
		trace.WithTimestamp(builder.startTime),
		trace.WithAttributes(builder.attrs...),
		trace.WithLinks(builder.links...),
	)

	for _, ev := range builder.events {
		span.AddEvent(ev.name,
			trace.WithTimestamp(ev.time),
			trace.WithAttributes(ev.attrs...),
		)
	}

	if builder.statusSet {
		span.SetStatus(builder.status, builder.statusDesc)
	}

	return cx, nil
}
