package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(reconcilerSweepsTotal, reconcilerPaymentsChecked) }

var (
	reconcilerSweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_sweeps_total",
			Help: "Stale-payment reconciler sweeps by outcome.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	reconcilerPaymentsChecked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciler_payments_checked_total",
			Help: "Stale pending payments re-queried at the provider, by result.",
		},
		[]string{"result"}, // 'approved', 'failed', 'still_pending', 'error'
	)
)

func IncReconcilerSweep(status string) {
	reconcilerSweepsTotal.WithLabelValues(norm(status)).Inc()
}

func IncReconcilerPayment(result string) {
	reconcilerPaymentsChecked.WithLabelValues(norm(result)).Inc()
}
