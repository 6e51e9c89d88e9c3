package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// GrantForPayment creates or extends the subscription for a verified
	// successful payment. It must run inside the same transaction as the
	// payment's terminal flip; the caller passes the tx handle through.
	GrantForPayment(ctx context.Context, tx repository.Tx, p *model.Payment, now time.Time) (*model.Subscription, model.HistoryEvent, error)

	// ExpireDue flips every overdue live subscription to expired and appends
	// the audit entries. Returns the rows it expired.
	ExpireDue(ctx context.Context, now time.Time) ([]*model.Subscription, error)

	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
	History(ctx context.Context, subscriptionID string) ([]*model.SubscriptionHistory, error)
}

type subscriptionUC struct {
	subs    repository.SubscriptionRepository
	history repository.SubscriptionHistoryRepository
	courses repository.CourseRepository
	log     *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	history repository.SubscriptionHistoryRepository,
	courses repository.CourseRepository,
	logger *zerolog.Logger,
) *subscriptionUC {
	ucLog := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, history: history, courses: courses, log: &ucLog}
}

// GrantForPayment implements the extend-not-duplicate rule: a live row for
// the same (user, course, level) is extended from its current end date, so
// renewing early never truncates paid time. Without a live row a fresh
// window starts from now.
func (uc *subscriptionUC) GrantForPayment(ctx context.Context, tx repository.Tx, p *model.Payment, now time.Time) (*model.Subscription, model.HistoryEvent, error) {
	level, err := uc.courses.FindLevel(ctx, tx, p.LevelID)
	if err != nil {
		return nil, "", err
	}
	duration := level.AccessDuration()

	existing, err := uc.subs.FindLiveByKey(ctx, tx, p.UserID, p.CourseID, p.LevelID)
	switch {
	case err == nil:
		prevEnd := existing.EndDate
		base := existing.EndDate
		if base.Before(now) {
			// Row outlived its window but the sweep has not flipped it yet;
			// the new window runs from now, not from the stale end date.
			base = now
		}
		existing.EndDate = base.Add(duration)
		existing.Status = model.SubscriptionStatusActive
		existing.RenewalCount++
		existing.PaymentID = p.ID
		existing.UpdatedAt = now
		if err := uc.subs.Save(ctx, tx, existing); err != nil {
			return nil, "", err
		}
		if err := uc.appendHistory(ctx, tx, existing, model.HistoryEventRenewed, &prevEnd, p.ID, now); err != nil {
			return nil, "", err
		}
		return existing, model.HistoryEventRenewed, nil

	case errors.Is(err, domain.ErrNotFound):
		s, err := model.NewSubscription(uuid.NewString(), p.UserID, p.CourseID, p.LevelID, p.ID, now, duration)
		if err != nil {
			return nil, "", err
		}
		if err := uc.subs.Save(ctx, tx, s); err != nil {
			return nil, "", err
		}
		if err := uc.appendHistory(ctx, tx, s, model.HistoryEventCreated, nil, p.ID, now); err != nil {
			return nil, "", err
		}
		return s, model.HistoryEventCreated, nil

	default:
		return nil, "", err
	}
}

func (uc *subscriptionUC) ExpireDue(ctx context.Context, now time.Time) ([]*model.Subscription, error) {
	expired, err := uc.subs.ExpireDue(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}
	for _, s := range expired {
		end := s.EndDate
		if err := uc.appendHistory(ctx, repository.NoTX, s, model.HistoryEventExpired, &end, "", now); err != nil {
			// One bad row must not abort the batch.
			uc.log.Error().Err(err).Str("subscription_id", s.ID).Msg("append expiry history failed")
		}
	}
	return expired, nil
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return uc.subs.ListByUser(ctx, repository.NoTX, userID)
}

func (uc *subscriptionUC) History(ctx context.Context, subscriptionID string) ([]*model.SubscriptionHistory, error) {
	return uc.history.ListBySubscription(ctx, repository.NoTX, subscriptionID)
}

func (uc *subscriptionUC) appendHistory(ctx context.Context, tx repository.Tx, s *model.Subscription, event model.HistoryEvent, prevEnd *time.Time, paymentID string, now time.Time) error {
	return uc.history.Append(ctx, tx, &model.SubscriptionHistory{
		ID:             uuid.NewString(),
		SubscriptionID: s.ID,
		Event:          event,
		PrevEndDate:    prevEnd,
		NewEndDate:     s.EndDate,
		PaymentID:      paymentID,
		CreatedAt:      now,
	})
}
