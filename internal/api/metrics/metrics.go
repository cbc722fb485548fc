// Package metrics declares the application-level Prometheus collectors. They
// register with the default registry on import and are served by /metrics
// next to the HTTP metrics recorded by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sharethrift"

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

// Refusals, labelled by echo route path ("/v1/listings/:id/publish").
var (
	AuthorizationDenialsTotal = counter("authz", "denials_total",
		"Operations refused because a visa did not grant the capability.", "route")
	TransitionFailuresTotal = counter("lifecycle", "transition_failures_total",
		"Operations refused because of the aggregate state.", "route")
)

// Domain events. The event label is the event name, e.g.
// "reservation_request.accepted".
var (
	DomainEventsPublishedTotal = counter("events", "published_total",
		"Domain events handed to the dispatcher after a successful save.", "event")
	EventsProcessedTotal = counter("events", "processed_total",
		"Domain events whose reaction completed.", "event")
	// reason is one of not_found, concurrent_modification, invariant, internal.
	EventsErrorsTotal = counter("events", "errors_total",
		"Domain events that failed processing.", "reason")
	// result is hit (already handled) or miss.
	EventsDedupTotal = counter("events", "dedup_total",
		"Deduplication lookups by result.", "result")

	EventsQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "queue_depth",
		Help:      "Events waiting in each dispatcher worker channel.",
	}, []string{"worker_id"})

	EventProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "processing_duration_seconds",
		Help:      "Time from dequeue to completion of one domain event.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"status"})
)
