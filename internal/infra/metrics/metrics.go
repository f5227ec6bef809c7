package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CMSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cms_request_duration_seconds",
			Help:    "Duration of requests to the headless CMS",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)

	CMSRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cms_request_retries_total",
			Help: "The total number of retried CMS requests",
		},
		[]string{"op"},
	)

	PagesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pages_generated_total",
			Help: "The total number of generated page props",
		},
		[]string{"page", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "page_generation_duration_seconds",
			Help:    "Duration of page props generation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"page"},
	)

	SnapshotLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_lookups_total",
			Help: "Static snapshot lookups by result (hit, miss, stale)",
		},
		[]string{"page", "result"},
	)

	DLQMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlq_messages_published_total",
			Help: "Total number of revalidation events published to DLQ",
		},
	)

	RevalidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "revalidation_duration_seconds",
			Help:    "Duration of full site revalidation",
			Buckets: prometheus.DefBuckets,
		},
	)

	RevalidationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revalidation_errors_total",
			Help: "Total number of failed revalidations",
		},
	)

	RevalidationSuccess = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revalidation_success_total",
			Help: "Total number of successful revalidations",
		},
	)

	PreviewSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_sessions_total",
			Help: "Preview sessions started and ended",
		},
		[]string{"action"},
	)
)
