package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		paymentVerifyTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments reaching a status (pending/success/failed), by provider.",
		},
		[]string{"provider", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_minor_total",
			Help: "Total value of successful payments in minor currency units.",
		},
		[]string{"provider"},
	)

	paymentVerifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_total",
			Help: "Server-side verification outcomes (success/failed/pending/transport_error).",
		},
		[]string{"provider", "outcome"},
	)
)

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddPaymentRevenue(provider string, amountMinor int64) {
	paymentsRevenueTotal.WithLabelValues(norm(provider)).Add(float64(amountMinor))
}

func IncPaymentVerify(provider, outcome string) {
	paymentVerifyTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}
