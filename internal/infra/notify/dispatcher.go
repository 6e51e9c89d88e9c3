package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	"edu-subscription-platform/internal/domain/ports/repository"
	"edu-subscription-platform/internal/infra/queue"
)

var _ adapter.NotificationDispatcher = (*Dispatcher)(nil)

// Dispatcher turns reconciliation and lifecycle events into user-visible
// messages: it persists the in-app notification row synchronously and hands
// the email to the task queue. Every method is fire-and-forget: failures
// are logged, never returned to the caller.
type Dispatcher struct {
	notifs repository.NotificationRepository
	users  repository.UserDirectory
	q      *queue.Client
	log    *zerolog.Logger
}

func NewDispatcher(notifs repository.NotificationRepository, users repository.UserDirectory, q *queue.Client, logger *zerolog.Logger) *Dispatcher {
	dLog := logger.With().Str("component", "NotificationDispatcher").Logger()
	return &Dispatcher{notifs: notifs, users: users, q: q, log: &dLog}
}

func (d *Dispatcher) NotifyPaymentSuccess(ctx context.Context, userID, courseName, levelName, reference string, amountMinor int64) {
	title := "Payment successful"
	msg := fmt.Sprintf("Your payment of %s for %s (%s) was successful. Reference: %s.",
		formatAmount(amountMinor), courseName, levelName, reference)
	d.dispatch(ctx, userID, model.NotificationPaymentSuccess, title, msg)
}

func (d *Dispatcher) NotifyPaymentFailed(ctx context.Context, userID, courseName, levelName, reference string) {
	title := "Payment failed"
	msg := fmt.Sprintf("Your payment for %s (%s) could not be completed. Reference: %s. Please try again.",
		courseName, levelName, reference)
	d.dispatch(ctx, userID, model.NotificationPaymentFailed, title, msg)
}

func (d *Dispatcher) NotifyExpiryReminder(ctx context.Context, userID, courseName, levelName string, expiryDate time.Time, daysRemaining int) {
	var title, msg string
	if daysRemaining <= 0 {
		title = "Subscription expired"
		msg = fmt.Sprintf("Your access to %s (%s) expired on %s. Renew to continue learning.",
			courseName, levelName, expiryDate.Format("2 Jan 2006"))
		d.dispatch(ctx, userID, model.NotificationExpired, title, msg)
		return
	}
	title = "Subscription expiring soon"
	msg = fmt.Sprintf("Your access to %s (%s) expires in %d days, on %s. Renew now to keep your progress.",
		courseName, levelName, daysRemaining, expiryDate.Format("2 Jan 2006"))
	d.dispatch(ctx, userID, model.NotificationExpiryReminder, title, msg)
}

func (d *Dispatcher) dispatch(ctx context.Context, userID string, typ model.NotificationType, title, msg string) {
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   msg,
		CreatedAt: time.Now(),
	}
	if err := d.notifs.Save(ctx, nil, n); err != nil {
		d.log.Error().Err(err).Str("user_id", userID).Str("type", string(typ)).Msg("save notification failed")
		return
	}

	addr, err := d.users.FindEmail(ctx, nil, userID)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", userID).Msg("no email address for user")
		addr = ""
	}
	task, err := queue.NewNotificationEmailTask(queue.NotificationEmailPayload{
		NotificationID: n.ID,
		UserID:         userID,
		Email:          addr,
		Subject:        title,
		Body:           msg,
		CreatedAt:      n.CreatedAt,
	})
	if err != nil {
		d.log.Error().Err(err).Msg("build email task failed")
		return
	}
	if err := d.q.Enqueue(ctx, task); err != nil {
		d.log.Error().Err(err).Str("notification_id", n.ID).Msg("enqueue email task failed")
	}
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("NGN %d.%02d", minor/100, minor%100)
}
