// Package monitoring exposes Prometheus counters for the booking core.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_admissions_total",
			Help: "Enrollment admission decisions",
		},
		[]string{"outcome"},
	)

	chargesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_charges_created_total",
			Help: "PIX charges requested from the payment provider",
		},
		[]string{"status"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reconciliations_total",
			Help: "Reconciliation runs by trigger and result",
		},
		[]string{"trigger", "result"},
	)
)

// Admission records an admission decision outcome, e.g. "admitted",
// "rejected_full", "rejected_not_open", "rejected_already_enrolled".
func Admission(outcome string) {
	admissions.WithLabelValues(outcome).Inc()
}

// ChargeCreated records a charge creation attempt ("ok" or "error").
func ChargeCreated(status string) {
	chargesCreated.WithLabelValues(status).Inc()
}

// Reconciliation records a reconciliation run. Trigger is "pull" or "push";
// result is the reported outcome ("approved", "rejected", "pending",
// "error").
func Reconciliation(trigger, result string) {
	reconciliations.WithLabelValues(trigger, result).Inc()
}
