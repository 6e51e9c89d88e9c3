package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	"edu-subscription-platform/internal/domain/ports/repository"
	"edu-subscription-platform/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// CheckAndSendExpiryReminders walks the configured warning windows and
	// dispatches one reminder per user per day. Returns the number sent.
	CheckAndSendExpiryReminders(ctx context.Context, now time.Time) (int, error)

	// SendExpiredNotices notifies the owners of freshly expired rows.
	SendExpiredNotices(ctx context.Context, expired []*model.Subscription) int

	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationUC struct {
	notifs     repository.NotificationRepository
	subs       repository.SubscriptionRepository
	courses    repository.CourseRepository
	dispatcher adapter.NotificationDispatcher
	windows    []int // days before expiry, e.g. [14, 7]
	log        *zerolog.Logger
}

func NewNotificationUseCase(
	notifs repository.NotificationRepository,
	subs repository.SubscriptionRepository,
	courses repository.CourseRepository,
	dispatcher adapter.NotificationDispatcher,
	windows []int,
	logger *zerolog.Logger,
) *notificationUC {
	ucLog := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{
		notifs:     notifs,
		subs:       subs,
		courses:    courses,
		dispatcher: dispatcher,
		windows:    windows,
		log:        &ucLog,
	}
}

func (uc *notificationUC) CheckAndSendExpiryReminders(ctx context.Context, now time.Time) (int, error) {
	sent := 0
	for _, days := range uc.windows {
		ending, err := uc.subs.ListEndingWithin(ctx, repository.NoTX, now, days)
		if err != nil {
			return sent, fmt.Errorf("list subscriptions ending in %d days: %w", days, err)
		}
		for _, s := range ending {
			exists, err := uc.notifs.ExistsForDay(ctx, repository.NoTX, s.UserID, model.NotificationExpiryReminder, now)
			if err != nil {
				uc.log.Error().Err(err).Str("subscription_id", s.ID).Msg("reminder dedup check failed")
				continue
			}
			if exists {
				continue
			}
			courseName, levelName := uc.names(ctx, s.CourseID, s.LevelID)
			uc.dispatcher.NotifyExpiryReminder(ctx, s.UserID, courseName, levelName, s.EndDate, days)
			if err := uc.subs.MarkExpiringSoon(ctx, repository.NoTX, s.ID); err != nil {
				uc.log.Warn().Err(err).Str("subscription_id", s.ID).Msg("mark expiring_soon failed")
			}
			metrics.IncExpiryReminder(fmt.Sprintf("%dd", days))
			sent++
		}
	}
	return sent, nil
}

func (uc *notificationUC) SendExpiredNotices(ctx context.Context, expired []*model.Subscription) int {
	sent := 0
	for _, s := range expired {
		courseName, levelName := uc.names(ctx, s.CourseID, s.LevelID)
		uc.dispatcher.NotifyExpiryReminder(ctx, s.UserID, courseName, levelName, s.EndDate, 0)
		sent++
	}
	return sent
}

func (uc *notificationUC) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	return uc.notifs.ListByUser(ctx, repository.NoTX, userID, limit)
}

func (uc *notificationUC) MarkRead(ctx context.Context, id string) error {
	return uc.notifs.MarkRead(ctx, repository.NoTX, id)
}

func (uc *notificationUC) names(ctx context.Context, courseID, levelID string) (string, string) {
	courseName, levelName := courseID, levelID
	if c, err := uc.courses.FindCourse(ctx, repository.NoTX, courseID); err == nil {
		courseName = c.Name
	}
	if l, err := uc.courses.FindLevel(ctx, repository.NoTX, levelID); err == nil {
		levelName = l.Name
	}
	return courseName, levelName
}
