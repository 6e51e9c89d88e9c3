package adapter

import (
	"context"
	"time"
)

// NotificationDispatcher is the collaborator that turns lifecycle and
// reconciliation events into user-visible messages (in-app row + email).
// All methods are fire-and-forget with at-least-once delivery on the email
// side; implementations log failures and never propagate them to the caller.
type NotificationDispatcher interface {
	NotifyPaymentSuccess(ctx context.Context, userID, courseName, levelName, reference string, amountMinor int64)
	NotifyPaymentFailed(ctx context.Context, userID, courseName, levelName, reference string)
	NotifyExpiryReminder(ctx context.Context, userID, courseName, levelName string, expiryDate time.Time, daysRemaining int)
}

// ReceiptGenerator is invoked only after a payment reaches success.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, paymentID string) (receiptID string, err error)
}
