// Package metrics provides Prometheus metrics for pricewatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChecksTotal counts product checks by store and outcome.
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewatch",
			Name:      "checks_total",
			Help:      "Total number of product checks",
		},
		[]string{"store", "status"},
	)

	// CheckDuration measures how long one product check takes.
	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pricewatch",
			Name:      "check_duration_seconds",
			Help:      "Duration of product checks in seconds",
			Buckets:   []float64{1, 5, 10, 15, 20, 30, 45, 60, 90},
		},
		[]string{"store"},
	)

	// NotificationsTotal counts notifications by event kind and delivery status.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pricewatch",
			Name:      "notifications_total",
			Help:      "Total number of notifications",
		},
		[]string{"kind", "status"},
	)

	// CyclesTotal counts completed passes over the ledger.
	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pricewatch",
			Name:      "cycles_total",
			Help:      "Total number of completed polling cycles",
		},
	)

	// LastPrice is the most recent observed price per product URL.
	LastPrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pricewatch",
			Name:      "last_price",
			Help:      "Most recent observed price",
		},
		[]string{"url"},
	)
)

// RecordCheck records one product check.
func RecordCheck(store, status string, seconds float64) {
	ChecksTotal.WithLabelValues(store, status).Inc()
	CheckDuration.WithLabelValues(store).Observe(seconds)
}

// RecordNotification records one notification attempt.
func RecordNotification(kind, status string) {
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}
