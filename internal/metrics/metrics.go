// Package metrics exposes Prometheus collectors for the ledger.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ndewijer/Property-Share-Ledger-Backend/internal/apperrors"
)

var (
	// Settlement operations
	SettlementOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_settlement_operations_total",
			Help: "Total number of settlement engine operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	SettlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_settlement_duration_seconds",
			Help:    "Duration of settlement engine operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	SettlementRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_settlement_retries_total",
			Help: "Total number of optimistic-concurrency retries",
		},
		[]string{"operation"},
	)

	// Distribution sweep
	DistributionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_distribution_runs_total",
			Help: "Total number of return distribution sweeps",
		},
		[]string{"trigger", "outcome"},
	)

	DistributionItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_distribution_items_total",
			Help: "Investments visited by the distribution sweep, by result",
		},
		[]string{"result"}, // "credited", "skipped", "failed"
	)

	DistributionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_distribution_duration_seconds",
			Help:    "Duration of a full distribution sweep in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Notifications
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifications_total",
			Help: "Post-commit notifications by dispatcher and result",
		},
		[]string{"dispatcher", "result"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// RecordSettlement records the outcome and latency of a settlement operation.
// The outcome label is the error kind, or "ok".
func RecordSettlement(operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	SettlementOperations.WithLabelValues(operation, outcome).Inc()
	SettlementDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRetry counts one optimistic-concurrency retry.
func RecordRetry(operation string) {
	SettlementRetries.WithLabelValues(operation).Inc()
}

// RecordDistribution records a finished sweep and its per-item counts.
func RecordDistribution(trigger string, duration time.Duration, credited, skipped, failed int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DistributionRuns.WithLabelValues(trigger, outcome).Inc()
	DistributionDuration.Observe(duration.Seconds())
	DistributionItems.WithLabelValues("credited").Add(float64(credited))
	DistributionItems.WithLabelValues("skipped").Add(float64(skipped))
	DistributionItems.WithLabelValues("failed").Add(float64(failed))
}

// RecordNotification counts a notification delivery attempt.
func RecordNotification(dispatcher string, err error) {
	result := "delivered"
	if err != nil {
		result = "failed"
	}
	NotificationsDispatched.WithLabelValues(dispatcher, result).Inc()
}

// RecordAPIRequest records API request metrics.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
