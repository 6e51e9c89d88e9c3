package repository

import (
	"context"
	"time"

	"edu-subscription-platform/internal/domain/model"
)

type NotificationRepository interface {
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, tx Tx, id string) error
	MarkEmailSent(ctx context.Context, tx Tx, id string) error

	// ExistsForDay reports whether a notification of the given type was
	// already created for the user on the calendar day containing `day`.
	// Used to keep lifecycle reminders idempotent per day.
	ExistsForDay(ctx context.Context, tx Tx, userID string, typ model.NotificationType, day time.Time) (bool, error)
}
