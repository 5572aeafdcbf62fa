package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by handler and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iam_service_requests_total",
		Help: "The total number of requests by handler and status code",
	}, []string{"handler", "status"})

	// RequestDuration observes request handling time.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iam_service_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	// DatabaseOperationsTotal counts repository operations by outcome.
	DatabaseOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iam_service_database_operations_total",
		Help: "The total number of database operations",
	}, []string{"operation", "status"})

	// CacheOperationsTotal counts cache operations by outcome
	// (hit/miss/corrupt for gets).
	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iam_service_cache_operations_total",
		Help: "The total number of cache operations",
	}, []string{"operation", "status"})

	// ResolverRunsTotal counts effective-permission resolutions.
	ResolverRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iam_service_resolver_runs_total",
		Help: "The total number of effective-permission resolutions",
	})

	// ResolverDuration observes resolution time.
	ResolverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iam_service_resolver_duration_seconds",
		Help:    "The effective-permission resolution duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// EventsPublishedTotal counts fire-and-forget event publishes by outcome.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iam_service_events_published_total",
		Help: "The total number of published domain events",
	}, []string{"topic", "status"})
)
