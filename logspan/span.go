package logspan

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
)

// SpanID identifies a span within one pipeline. Identifiers are allocated
// sequentially, are never reused, and are never zero.
type SpanID uint64

// Span is a named interval of work registered with a Pipeline. Spans are safe
// for concurrent use; the extension slot is guarded by the span's own lock.
type Span struct {
	id      SpanID
	name    string
	parent  SpanID
	started time.Time
	pipe    *Pipeline

	closed atomic.Bool

	mu  sync.Mutex
	ext Extensions
}

// ID returns the span's pipeline-local identifier.
func (s *Span) ID() SpanID {
	return s.id
}

// Name returns the name the span was created with.
func (s *Span) Name() string {
	return s.name
}

// ParentID returns the id of the span's in-process parent, or 0 for a root
// span.
func (s *Span) ParentID() SpanID {
	return s.parent
}

// StartTime returns when the span was created.
func (s *Span) StartTime() time.Time {
	return s.started
}

// Pipeline returns the pipeline the span belongs to.
func (s *Span) Pipeline() *Pipeline {
	return s.pipe
}

// WithExtensions runs f with a mutable view of the span's extension slot. The
// span's lock is held for the duration of f, so f must not call back into
// WithExtensions for the same span, and must not perform slow work such as
// export hand-off.
func (s *Span) WithExtensions(f func(ext *Extensions)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f(&s.ext)
}

// Record records attributes on the span.
func (s *Span) Record(attrs ...attribute.KeyValue) {
	if s.closed.Load() {
		return
	}

	for _, l := range s.pipe.layers {
		l.OnRecord(s, attrs)
	}
}

// FollowsFrom declares that this span causally follows the span identified by
// id. The followed span may belong to another goroutine and may already be
// closed; in that case the declaration is a silent no-op.
func (s *Span) FollowsFrom(id SpanID) {
	if s.closed.Load() {
		return
	}

	for _, l := range s.pipe.layers {
		l.OnFollowsFrom(s, id)
	}
}

// Enter marks the span as the current span and returns a derived context plus
// an exit function. The exit function must be called when the unit of work
// leaves the span, typically via defer.
func (s *Span) Enter(ctx context.Context) (context.Context, func()) {
	for _, l := range s.pipe.layers {
		l.OnEnter(s)
	}

	exited := false

	return ContextWithSpan(ctx, s), func() {
		if exited {
			return
		}

		exited = true

		for _, l := range s.pipe.layers {
			l.OnExit(s)
		}
	}
}

// Close closes the span: every layer's OnClose runs with the span still
// resolvable through the pipeline, and only then is the span removed from the
// registry. Safe to call multiple times; subsequent calls are no-ops.
func (s *Span) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	for _, l := range s.pipe.layers {
		l.OnClose(s)
	}

	s.pipe.removeSpan(s.id)
}
