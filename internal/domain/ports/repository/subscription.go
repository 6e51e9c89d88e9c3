package repository

import (
	"context"
	"time"

	"edu-subscription-platform/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindLiveByKey returns the live row for (user, course, level), or
	// ErrNotFound. Inside a transaction the row is locked FOR UPDATE so a
	// concurrent expiry write cannot race the renewal.
	FindLiveByKey(ctx context.Context, tx Tx, userID, courseID, levelID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)

	// ExpireDue flips every live subscription whose end date has passed to
	// expired and returns the affected rows. The status filter in the UPDATE
	// makes the sweep idempotent and safe against a concurrent renewal.
	ExpireDue(ctx context.Context, tx Tx, now time.Time) ([]*model.Subscription, error)

	// ListEndingWithin returns live subscriptions whose end date falls inside
	// the day window [now+days, now+days+24h).
	ListEndingWithin(ctx context.Context, tx Tx, now time.Time, days int) ([]*model.Subscription, error)

	// MarkExpiringSoon tags an active row; no-op when the row has moved on.
	MarkExpiringSoon(ctx context.Context, tx Tx, id string) error
}

type SubscriptionHistoryRepository interface {
	Append(ctx context.Context, tx Tx, h *model.SubscriptionHistory) error
	ListBySubscription(ctx context.Context, tx Tx, subscriptionID string) ([]*model.SubscriptionHistory, error)
}
