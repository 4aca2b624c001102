// Package metrics exposes Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProvisionAttempts counts node-add orchestrations by terminal status.
	ProvisionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeup_provision_attempts_total",
		Help: "Total node provisioning attempts by terminal status",
	}, []string{"status"})

	// StageFailures counts SSH stage failures by stage name and kind.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeup_stage_failures_total",
		Help: "Total provisioning stage failures",
	}, []string{"stage", "kind"})

	// APIRetries counts management API retry attempts by operation.
	APIRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodeup_api_retries_total",
		Help: "Total management API retries by operation",
	}, []string{"operation"})

	// UnauthorizedAccess counts rejected non-admin interactions.
	UnauthorizedAccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeup_unauthorized_access_total",
		Help: "Total interactions rejected by the admin allow-list",
	})

	// ActiveSessions tracks conversation sessions currently held in memory.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodeup_active_sessions",
		Help: "Conversation sessions currently tracked",
	})

	// StageDuration observes per-stage execution time.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nodeup_stage_duration_seconds",
		Help:    "Duration of individual provisioning stages",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})
)
