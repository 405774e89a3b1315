package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

// kind: payment_approved|receipt_submitted|verification_failed
// status: sent|error|duplicate
var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Outbound notifications by kind and delivery status.",
	},
	[]string{"kind", "status"},
)

func IncNotification(kind, status string) {
	notificationsTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}
