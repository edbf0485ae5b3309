// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by route pattern, method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "choreshare",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route, method and status.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route pattern and method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "choreshare",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ServiceErrors counts failed service operations by error kind.
	ServiceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "choreshare",
		Name:      "service_errors_total",
		Help:      "Failed service operations, by operation and error kind.",
	}, []string{"operation", "kind"})

	// ChoreLogsRecorded counts log rows written by RecordChore.
	ChoreLogsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "choreshare",
		Name:      "chore_logs_recorded_total",
		Help:      "Chore log rows written, one per performer.",
	})

	// InviteJoins counts successful joins through invite codes.
	InviteJoins = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "choreshare",
		Name:      "invite_joins_total",
		Help:      "Users who joined a group with an invite code.",
	})
)
