package logspan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amp-labs/amp-spanbridge/contexts"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
)

// Pipeline is the dispatch handle of the span-logging pipeline. It owns the
// span registry, fans lifecycle transitions out to its layers, and carries the
// capability registry through which layers expose operations to external
// observers without a compile-time dependency on the layer's concrete type.
//
// Safe for concurrent use by multiple goroutines.
type Pipeline struct {
	layers []Layer

	mu    sync.RWMutex
	spans map[SpanID]*Span

	capMu sync.RWMutex
	caps  map[any]any

	nextID atomic.Uint64
	alive  atomic.Bool
}

// New creates a pipeline with the given layers and attaches each of them. The
// layer order is the dispatch order for every hook.
func New(layers ...Layer) *Pipeline {
	p := &Pipeline{
		layers: layers,
		spans:  make(map[SpanID]*Span),
		caps:   make(map[any]any),
	}
	p.alive.Store(true)

	for _, l := range layers {
		l.OnAttach(p)
	}

	return p
}

// NewSpan creates and registers a span. The in-process parent is the current
// span found in ctx, if any; layers may additionally extract externally
// propagated state from ctx for root spans.
func (p *Pipeline) NewSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) *Span {
	ctx = contexts.EnsureContext(ctx)

	span := &Span{
		id:      SpanID(p.nextID.Add(1)),
		name:    name,
		started: time.Now(),
		pipe:    p,
	}

	parent, _ := SpanFromContext(ctx)
	if parent != nil {
		span.parent = parent.id
	}

	p.mu.Lock()
	p.spans[span.id] = span
	p.mu.Unlock()

	for _, l := range p.layers {
		l.OnNewSpan(span, parent, ctx, attrs)
	}

	return span
}

// Span resolves a span by id. Returns false if the span was never created or
// has already been closed and removed; callers are expected to treat absence
// as a normal outcome.
func (p *Pipeline) Span(id SpanID) (*Span, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	span, ok := p.spans[id]

	return span, ok
}

// Event delivers a contextual event: the parent span is the current span found
// in ctx. Events with no resolvable parent are dropped.
func (p *Pipeline) Event(ctx context.Context, level slog.Level, msg string, attrs ...attribute.KeyValue) {
	scope, ok := SpanFromContext(ctx)
	if !ok {
		return
	}

	p.dispatchEvent(&Event{
		Time:       time.Now(),
		Level:      level,
		Message:    msg,
		Attributes: attrs,
	}, scope)
}

// EventForSpan delivers an event with an explicitly declared parent span. The
// event is dropped if the span has already been closed and removed.
func (p *Pipeline) EventForSpan(id SpanID, level slog.Level, msg string, attrs ...attribute.KeyValue) {
	scope, ok := p.Span(id)
	if !ok {
		return
	}

	p.dispatchEvent(&Event{
		Time:       time.Now(),
		Level:      level,
		Message:    msg,
		Attributes: attrs,
		parent:     id,
	}, scope)
}

func (p *Pipeline) dispatchEvent(ev *Event, scope *Span) {
	for _, l := range p.layers {
		l.OnEvent(ev, scope)
	}
}

// RegisterCapability stores a capability under key. Keys should be unexported
// types owned by the registering layer's package so that unrelated layers
// cannot collide.
func (p *Pipeline) RegisterCapability(key, capability any) {
	p.capMu.Lock()
	defer p.capMu.Unlock()

	p.caps[key] = capability
}

// Capability returns the capability registered under key, or nil when no layer
// registered one or the pipeline has been shut down. Callers downcast the
// result to the capability type they expect; a failed downcast means the
// pipeline does not support the capability and is not an error.
func (p *Pipeline) Capability(key any) any {
	if !p.alive.Load() {
		return nil
	}

	p.capMu.RLock()
	defer p.capMu.RUnlock()

	return p.caps[key]
}

// Downgrade returns a weak handle to the pipeline. Observers that outlive the
// pipeline hold a Weak and upgrade it before use.
func (p *Pipeline) Downgrade() Weak {
	return Weak{pipe: p}
}

// Shutdown tears the pipeline down: capabilities stop resolving and weak
// handles stop upgrading. Spans already created remain closeable so that
// in-flight work can still finish cleanly.
func (p *Pipeline) Shutdown() {
	p.alive.Store(false)
}

func (p *Pipeline) removeSpan(id SpanID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.spans, id)
}

// Weak is a weak handle to a Pipeline. The zero value never upgrades.
type Weak struct {
	pipe *Pipeline
}

// Upgrade returns the pipeline if it is still alive. After Pipeline.Shutdown,
// Upgrade reports false; callers treat that the same way as a missing
// capability.
func (w Weak) Upgrade() (*Pipeline, bool) {
	if w.pipe == nil || !w.pipe.alive.Load() {
		return nil, false
	}

	return w.pipe, true
}
