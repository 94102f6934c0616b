// Package metrics provides Prometheus metrics for the Fern service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal tracks hierarchy mutations by operation and outcome
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "hierarchy",
			Name:      "mutations_total",
			Help:      "Total number of hierarchy mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// RollbacksTotal tracks optimistic mutations that were rolled back
	RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "hierarchy",
			Name:      "rollbacks_total",
			Help:      "Total number of optimistic mutations rolled back after a remote failure",
		},
		[]string{"operation"},
	)

	// RemoteRequestsTotal tracks requests to the record store
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "record_store",
			Name:      "requests_total",
			Help:      "Total number of record store requests by method and status",
		},
		[]string{"method", "status_code"},
	)

	// RemoteRequestDuration tracks record store request duration
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "record_store",
			Name:      "request_duration_seconds",
			Help:      "Duration of record store requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// StagedAssetsRejected tracks image uploads rejected during staging
	StagedAssetsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "assets",
			Name:      "staged_rejected_total",
			Help:      "Total number of staged assets rejected by validation reason",
		},
		[]string{"reason"},
	)
)
