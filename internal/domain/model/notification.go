package model

import "time"

type NotificationType string

const (
	NotificationPaymentSuccess NotificationType = "payment_success"
	NotificationPaymentFailed  NotificationType = "payment_failed"
	NotificationExpiryReminder NotificationType = "expiry_reminder"
	NotificationExpired        NotificationType = "subscription_expired"
)

// Notification is the in-app message row. EmailSent flips once the queued
// email task for the same event has been delivered.
type Notification struct {
	ID        string // UUID
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	IsRead    bool
	EmailSent bool
	CreatedAt time.Time
}

// Receipt is created once per successful payment.
type Receipt struct {
	ID        string // UUID
	PaymentID string
	Number    string // human-facing receipt number
	CreatedAt time.Time
}
