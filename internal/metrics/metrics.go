package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatsync_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Slack metrics
	SlackEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_slack_events_total",
			Help: "Total number of Slack events received",
		},
		[]string{"event_type", "status"},
	)

	// Sync metrics
	MessagesSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_messages_synced_total",
			Help: "Total number of message sync attempts by outcome",
		},
		[]string{"status"},
	)

	ThreadsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatsync_threads_inserted_total",
			Help: "Total number of thread rows inserted",
		},
	)

	// Database metrics
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatsync_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatsync_database_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
