package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors for the domain operations.
type Metrics struct {
	ReconciliationsTotal *prometheus.CounterVec
	DriftDetectedTotal   prometheus.Counter
	SweepsTotal          prometheus.Counter
	NotificationsTotal   *prometheus.CounterVec
	PenaltiesTotal       prometheus.Counter
	BulkUpdatesTotal     *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

// New registers and returns the metric set. Must be called once per process.
func New() *Metrics {
	return &Metrics{
		ReconciliationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brocy_reconciliations_total",
			Help: "Total number of item status reconciliations by outcome",
		}, []string{"outcome"}),

		DriftDetectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brocy_status_drift_detected_total",
			Help: "Total number of recommendation calls that detected drift",
		}),

		SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brocy_overdue_sweeps_total",
			Help: "Total number of overdue sweep runs",
		}),

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brocy_overdue_notifications_total",
			Help: "Total number of overdue notifications recorded by type",
		}, []string{"type"}),

		PenaltiesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brocy_trust_penalties_total",
			Help: "Total number of trust score penalties applied",
		}),

		BulkUpdatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brocy_bulk_status_updates_total",
			Help: "Total number of items processed by bulk status updates, by result",
		}, []string{"result"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brocy_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
