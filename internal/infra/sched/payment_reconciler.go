package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/infra/metrics"
	"edu-subscription-platform/internal/usecase"
)

// PaymentReconciler periodically re-verifies payments stuck in pending.
// This covers webhook deliveries that were lost, rejected for a bad
// signature, or abandoned mid-verify by a crash.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	rlog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  200,
		log:        &rlog,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reconciler")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	start := time.Now()
	n, err := w.uc.ReconcileStale(ctx, w.staleAfter, w.batchSize)
	metrics.ObserveJobRun("payment_reconcile", time.Since(start).Seconds(), err)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("attempted", n).Msg("stale payments reconciled")
	}
}
