package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhooksTotal)
}

var webhooksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhooks_total",
		Help: "Inbound webhook deliveries by provider and outcome (accepted/rejected/duplicate/malformed).",
	},
	[]string{"provider", "outcome"},
)

func IncWebhook(provider, outcome string) {
	webhooksTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}
