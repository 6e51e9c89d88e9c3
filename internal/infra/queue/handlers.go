package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain/ports/repository"
	"edu-subscription-platform/internal/infra/email"
)

// NotificationEmailHandler delivers the email half of a notification and
// flips email_sent on the in-app row. Returning an error makes asynq retry,
// which is what gives dispatch its at-least-once guarantee.
type NotificationEmailHandler struct {
	sender email.Sender
	notifs repository.NotificationRepository
	log    *zerolog.Logger
}

func NewNotificationEmailHandler(sender email.Sender, notifs repository.NotificationRepository, logger *zerolog.Logger) *NotificationEmailHandler {
	hLog := logger.With().Str("component", "NotificationEmailHandler").Logger()
	return &NotificationEmailHandler{sender: sender, notifs: notifs, log: &hLog}
}

func (h *NotificationEmailHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p NotificationEmailPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.Email == "" {
		// No address on file; the in-app row still exists, nothing to retry.
		h.log.Warn().Str("user_id", p.UserID).Msg("notification has no email address, skipping")
		return nil
	}

	if err := h.sender.Send(ctx, p.Email, p.Subject, p.Body); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	if err := h.notifs.MarkEmailSent(ctx, nil, p.NotificationID); err != nil {
		// Email went out; a failed flag update must not trigger a resend.
		h.log.Error().Err(err).Str("notification_id", p.NotificationID).Msg("mark email_sent failed")
	}

	h.log.Info().Str("notification_id", p.NotificationID).Msg("notification email sent")
	return nil
}

// ReceiptEmailHandler mails the plain-text receipt for a successful payment.
type ReceiptEmailHandler struct {
	sender email.Sender
	log    *zerolog.Logger
}

func NewReceiptEmailHandler(sender email.Sender, logger *zerolog.Logger) *ReceiptEmailHandler {
	hLog := logger.With().Str("component", "ReceiptEmailHandler").Logger()
	return &ReceiptEmailHandler{sender: sender, log: &hLog}
}

func (h *ReceiptEmailHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p ReceiptRenderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.Email == "" {
		h.log.Warn().Str("receipt_id", p.ReceiptID).Msg("receipt has no email address, skipping")
		return nil
	}

	body := fmt.Sprintf(
		"Receipt %s\n\nReference: %s\nCourse: %s\nAmount: %d.%02d\n\nThank you for your payment.",
		p.Number, p.Reference, p.CourseName, p.AmountMinor/100, p.AmountMinor%100)
	if err := h.sender.Send(ctx, p.Email, "Your payment receipt "+p.Number, body); err != nil {
		return fmt.Errorf("send receipt email: %w", err)
	}

	h.log.Info().Str("receipt_id", p.ReceiptID).Msg("receipt email sent")
	return nil
}
