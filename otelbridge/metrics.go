package otelbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// spansExported counts spans handed to the SDK at close.
//
// Metric name: amp_spanbridge_spans_exported_total
var spansExported = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "amp",
	Subsystem: "spanbridge",
	Name:      "spans_exported_total",
	Help:      "Total number of log spans exported as trace spans",
})

// eventsForwarded counts events a FilteredLayer approved and recorded as span
// events.
//
// Metric name: amp_spanbridge_events_forwarded_total
var eventsForwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "amp",
	Subsystem: "spanbridge",
	Name:      "events_forwarded_total",
	Help:      "Total number of events recorded as span events by the counting filter",
})

// eventsSuppressed counts events a FilteredLayer counted but did not record.
// Comparing it against events_forwarded_total shows how much log volume the
// filter is absorbing.
//
// Metric name: amp_spanbridge_events_suppressed_total
var eventsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "amp",
	Subsystem: "spanbridge",
	Name:      "events_suppressed_total",
	Help:      "Total number of events counted but filtered out by the counting filter",
})

// followsFromUnresolved counts follows-from declarations whose target span was
// already closed and removed. A steadily climbing value usually means spans
// are being linked after much of their trace has finished, which is tolerated
// but worth knowing about.
//
// Metric name: amp_spanbridge_follows_from_unresolved_total
var followsFromUnresolved = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "amp",
	Subsystem: "spanbridge",
	Name:      "follows_from_unresolved_total",
	Help:      "Total number of follows-from declarations that resolved to no span",
})
