package sched

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/infra/metrics"
	"edu-subscription-platform/internal/usecase"
)

// LifecycleWorker runs the daily subscription sweep: flip overdue rows to
// expired, notify their owners, then walk the warning windows. The cron
// schedule comes from config so staging can run it more often.
type LifecycleWorker struct {
	spec         string
	retryBackoff time.Duration
	subUC        usecase.SubscriptionUseCase
	notifUC      usecase.NotificationUseCase
	clock        func() time.Time
	cron         *cron.Cron
	log          *zerolog.Logger
}

func NewLifecycleWorker(spec string, retryBackoff time.Duration, subUC usecase.SubscriptionUseCase, notifUC usecase.NotificationUseCase, logger *zerolog.Logger) *LifecycleWorker {
	wlog := logger.With().Str("component", "LifecycleWorker").Logger()
	if retryBackoff <= 0 {
		retryBackoff = 30 * time.Minute
	}
	return &LifecycleWorker{
		spec:         spec,
		retryBackoff: retryBackoff,
		subUC:        subUC,
		notifUC:      notifUC,
		clock:        time.Now,
		log:          &wlog,
	}
}

// Start registers the cron entry and blocks until ctx is cancelled.
func (w *LifecycleWorker) Start(ctx context.Context) error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.spec, func() { w.runWithRetry(ctx) }); err != nil {
		return err
	}
	w.log.Info().Str("schedule", w.spec).Msg("starting lifecycle worker")
	w.cron.Start()

	<-ctx.Done()
	w.log.Info().Msg("stopping lifecycle worker")
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

// runWithRetry gives a failed sweep one more chance after the backoff. Both
// halves of the sweep are idempotent, so rerunning a partially failed run
// cannot double-expire or double-notify.
func (w *LifecycleWorker) runWithRetry(ctx context.Context) {
	if err := w.RunOnce(ctx); err == nil {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(w.retryBackoff):
		if err := w.RunOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("lifecycle sweep failed after retry")
		}
	}
}

// RunOnce performs one full sweep. Exported so an operator endpoint or a
// test can trigger it outside the schedule.
func (w *LifecycleWorker) RunOnce(ctx context.Context) error {
	start := w.clock()

	expired, err := w.subUC.ExpireDue(ctx, start)
	if err != nil {
		metrics.ObserveJobRun("lifecycle", time.Since(start).Seconds(), err)
		w.log.Error().Err(err).Msg("expiry sweep failed")
		return err
	}
	if len(expired) > 0 {
		metrics.IncSubscriptionsExpired(len(expired))
		w.log.Info().Int("count", len(expired)).Msg("subscriptions expired")
	}
	w.notifUC.SendExpiredNotices(ctx, expired)

	sent, err := w.notifUC.CheckAndSendExpiryReminders(ctx, w.clock())
	metrics.ObserveJobRun("lifecycle", time.Since(start).Seconds(), err)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry reminder sweep failed")
		return err
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("expiry reminders sent")
	}
	return nil
}
