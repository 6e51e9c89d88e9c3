package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsGranted,
		subscriptionsExpired,
		expiryRemindersSent,
	)
}

var (
	subscriptionsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_granted_total",
			Help: "Subscription grants by kind (created/renewed).",
		},
		[]string{"kind"},
	)

	subscriptionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions flipped to expired by the lifecycle worker.",
		},
	)

	expiryRemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_reminders_sent_total",
			Help: "Expiry reminder notifications by warning window (days).",
		},
		[]string{"window"},
	)
)

func IncSubscriptionGranted(kind string) {
	subscriptionsGranted.WithLabelValues(norm(kind)).Inc()
}

func IncSubscriptionsExpired(n int) {
	subscriptionsExpired.Add(float64(n))
}

func IncExpiryReminder(window string) {
	expiryRemindersSent.WithLabelValues(norm(window)).Inc()
}
