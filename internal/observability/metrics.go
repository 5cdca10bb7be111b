package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hotelops"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RideRequestTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_request_transitions_total", Help: "Ride requests created or moved to a status"},
		[]string{"status"},
	)
	TripTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "trip_transitions_total", Help: "Trips created or moved to a status"},
		[]string{"status"},
	)
	TripCreationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "trip_creation_conflicts_total", Help: "Trip creations rejected because the ride request already had a trip"},
	)
	IncidentsReported = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "incidents_reported_total", Help: "Incidents reported by type"},
		[]string{"type"},
	)
	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "event_publish_failures_total", Help: "Domain events that at least one sink failed to accept"},
		[]string{"type"},
	)
)
