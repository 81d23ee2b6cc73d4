package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	ConnectedAgents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connected_agents",
			Help: "Currently registered agents",
		},
	)

	HandshakeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_handshake_failures_total",
			Help: "Connections rejected during handshake",
		},
	)

	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_routed_total",
			Help: "Messages routed by outcome",
		},
		[]string{"outcome"}, // "delivered" or "queued"
	)

	QueuedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_queued_messages_total",
			Help: "Messages placed in an offline queue",
		},
	)

	QueueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_queue_dropped_total",
			Help: "Offline queue entries dropped on overflow",
		},
	)

	QueueFlushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_queue_flushed_total",
			Help: "Queued messages delivered on reconnect",
		},
	)

	// File transfer metrics
	FilesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_files_uploaded_total",
			Help: "Files uploaded",
		},
	)

	FilesDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_files_downloaded_total",
			Help: "Files downloaded",
		},
	)
)
