// Package metrics holds the Prometheus collectors shared by the chat
// transports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message results.
const (
	ResultExecuted = "executed"
	ResultPending  = "pending"
	ResultFailed   = "failed"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "despensa_messages_processed_total",
			Help: "Total number of chat messages processed, by result",
		},
		[]string{"result"},
	)

	MessageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "despensa_message_duration_seconds",
			Help:    "Duration of message processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "despensa_pending_store_errors_total",
			Help: "Total number of pending action store failures",
		},
		[]string{"operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "despensa_http_requests_total",
			Help: "Total number of HTTP requests, by route and status code",
		},
		[]string{"route", "code"},
	)
)
