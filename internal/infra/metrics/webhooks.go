package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhookEventsTotal) }

// provider: card|gateway
// result: applied|ignored|bad_signature|error
var webhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Provider webhook deliveries by provider and outcome.",
	},
	[]string{"provider", "result"},
)

func IncWebhookEvent(provider, result string) {
	webhookEventsTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}
