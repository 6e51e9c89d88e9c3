package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	"edu-subscription-platform/internal/domain/ports/repository"
	"edu-subscription-platform/internal/infra/metrics"
	rds "edu-subscription-platform/internal/infra/redis"
	"edu-subscription-platform/internal/infra/worker"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// lockTTL bounds how long a single delivery may hold a reference lock; it
// covers the provider verification round-trip with slack.
const lockTTL = 2 * time.Minute

// TaskPool is the slice of worker.Pool the payment flow needs: hand off the
// post-ack verification so the webhook response never waits on the provider.
type TaskPool interface {
	Submit(task worker.Task) error
}

type PaymentUseCase interface {
	// Initiate creates a pending payment and asks the provider for a
	// checkout URL the caller redirects the student to.
	Initiate(ctx context.Context, userID, levelID string, provider model.Provider) (*model.Payment, string, error)

	// HandleWebhookEvent is the ack path: it claims the reference and
	// schedules server-side verification, returning before the provider
	// round-trip. ErrNotFound and ErrAlreadyTerminal tell the transport
	// layer the delivery was unknown or a duplicate; both still ack.
	HandleWebhookEvent(ctx context.Context, provider model.Provider, reference string) error

	// Finalize verifies one pending payment with its provider and applies
	// the terminal transition. Safe to call any number of times.
	Finalize(ctx context.Context, reference string) error

	// ReconcileStale re-runs Finalize over payments stuck pending longer
	// than staleAfter. Returns how many rows it attempted.
	ReconcileStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error)

	GetByReference(ctx context.Context, reference string) (*model.Payment, error)

	// Revenue totals succeeded payments for "week", "month" or "year".
	Revenue(ctx context.Context, period string) (int64, error)
}

type paymentUC struct {
	payments  repository.PaymentRepository
	courses   repository.CourseRepository
	users     repository.UserDirectory
	txm       repository.TransactionManager
	subs      SubscriptionUseCase
	gateways  map[model.Provider]adapter.PaymentGateway
	callbacks map[model.Provider]string
	notifier  adapter.NotificationDispatcher
	receipts  adapter.ReceiptGenerator
	locker    rds.Locker
	pool      TaskPool
	clock     func() time.Time
	log       *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	courses repository.CourseRepository,
	users repository.UserDirectory,
	txm repository.TransactionManager,
	subs SubscriptionUseCase,
	gateways map[model.Provider]adapter.PaymentGateway,
	callbacks map[model.Provider]string,
	notifier adapter.NotificationDispatcher,
	receipts adapter.ReceiptGenerator,
	locker rds.Locker,
	pool TaskPool,
	logger *zerolog.Logger,
) *paymentUC {
	ucLog := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		payments:  payments,
		courses:   courses,
		users:     users,
		txm:       txm,
		subs:      subs,
		gateways:  gateways,
		callbacks: callbacks,
		notifier:  notifier,
		receipts:  receipts,
		locker:    locker,
		pool:      pool,
		clock:     time.Now,
		log:       &ucLog,
	}
}

func (uc *paymentUC) Initiate(ctx context.Context, userID, levelID string, provider model.Provider) (*model.Payment, string, error) {
	gw, ok := uc.gateways[provider]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnknownProvider, provider)
	}
	level, err := uc.courses.FindLevel(ctx, repository.NoTX, levelID)
	if err != nil {
		return nil, "", err
	}
	email, err := uc.users.FindEmail(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, "", err
	}

	now := uc.clock()
	p := &model.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		CourseID:    level.CourseID,
		LevelID:     levelID,
		AmountMinor: level.PriceMinor,
		Currency:    "NGN",
		Provider:    provider,
		Reference:   newReference(),
		Status:      model.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, "", err
	}

	res, err := gw.InitializeTransaction(ctx, email, p.AmountMinor, p.Reference, uc.callbacks[provider])
	if err != nil {
		return nil, "", err
	}
	if !res.OK {
		uc.log.Warn().Str("reference", p.Reference).Str("provider", string(provider)).
			Str("message", res.Message).Msg("provider declined initialization")
		return nil, "", fmt.Errorf("%w: %s", domain.ErrOperationFailed, res.Message)
	}
	metrics.IncPayment(string(provider), "initiated")
	return p, res.PaymentURL, nil
}

func (uc *paymentUC) HandleWebhookEvent(ctx context.Context, provider model.Provider, reference string) error {
	p, err := uc.payments.FindByReference(ctx, repository.NoTX, reference)
	if err != nil {
		return err
	}
	if p.Provider != provider {
		// A reference delivered by the wrong provider is not ours to act on.
		return domain.ErrNotFound
	}
	if p.Status.IsTerminal() {
		return domain.ErrAlreadyTerminal
	}

	key := "payment:ref:" + reference
	token, err := uc.locker.TryLock(ctx, key, lockTTL)
	if err != nil {
		// Another delivery of the same reference is already mid-flight.
		uc.log.Debug().Str("reference", reference).Msg("reference lock held, acking duplicate")
		return nil
	}

	submitErr := uc.pool.Submit(func(taskCtx context.Context) error {
		defer func() {
			if err := uc.locker.Unlock(taskCtx, key, token); err != nil {
				uc.log.Warn().Err(err).Str("reference", reference).Msg("unlock failed")
			}
		}()
		return uc.Finalize(taskCtx, reference)
	})
	if submitErr != nil {
		// The sweep will pick the payment up; release the lock now so it can.
		if err := uc.locker.Unlock(ctx, key, token); err != nil {
			uc.log.Warn().Err(err).Str("reference", reference).Msg("unlock failed")
		}
		uc.log.Error().Err(submitErr).Str("reference", reference).Msg("verification handoff failed")
	}
	return nil
}

func (uc *paymentUC) Finalize(ctx context.Context, reference string) error {
	p, err := uc.payments.FindByReference(ctx, repository.NoTX, reference)
	if err != nil {
		return err
	}
	if p.Status.IsTerminal() {
		return nil
	}
	gw, ok := uc.gateways[p.Provider]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownProvider, p.Provider)
	}

	res, err := gw.VerifyTransaction(ctx, p.Reference)
	if err != nil {
		// Transport trouble: the payment stays pending for the next sweep.
		metrics.IncPaymentVerify(string(p.Provider), "transport_error")
		return err
	}

	switch res.Status {
	case adapter.VerifySuccess:
		if res.AmountMinor != p.AmountMinor {
			uc.log.Warn().Str("reference", reference).
				Int64("expected", p.AmountMinor).Int64("verified", res.AmountMinor).
				Msg("verified amount mismatch, failing payment")
			metrics.IncPaymentVerify(string(p.Provider), "amount_mismatch")
			return uc.fail(ctx, p, res.ProviderRef)
		}
		metrics.IncPaymentVerify(string(p.Provider), "success")
		return uc.succeed(ctx, p, res.ProviderRef)
	case adapter.VerifyFailed:
		metrics.IncPaymentVerify(string(p.Provider), "failed")
		return uc.fail(ctx, p, res.ProviderRef)
	default:
		// Provider has no final answer yet; leave the row pending.
		metrics.IncPaymentVerify(string(p.Provider), "pending")
		return nil
	}
}

// succeed flips the payment and grants the subscription in one transaction,
// then runs the post-commit side effects. The conditional flip is the
// idempotency gate: only the caller that wins it runs side effects.
func (uc *paymentUC) succeed(ctx context.Context, p *model.Payment, providerRef string) error {
	now := uc.clock()
	var (
		claimed bool
		kind    model.HistoryEvent
	)
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		claimed, err = uc.payments.MarkTerminal(ctx, tx, p.ID, model.PaymentStatusSuccess, providerRef, &now)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
		_, kind, err = uc.subs.GrantForPayment(ctx, tx, p, now)
		return err
	})
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	metrics.IncPayment(string(p.Provider), string(model.PaymentStatusSuccess))
	metrics.AddPaymentRevenue(string(p.Provider), p.AmountMinor)
	metrics.IncSubscriptionGranted(string(kind))

	courseName, levelName := uc.names(ctx, p)
	uc.notifier.NotifyPaymentSuccess(ctx, p.UserID, courseName, levelName, p.Reference, p.AmountMinor)
	if _, err := uc.receipts.GenerateReceipt(ctx, p.ID); err != nil {
		uc.log.Error().Err(err).Str("payment_id", p.ID).Msg("receipt generation failed")
	}
	uc.log.Info().Str("reference", p.Reference).Str("provider", string(p.Provider)).
		Str("grant", string(kind)).Msg("payment reconciled")
	return nil
}

func (uc *paymentUC) fail(ctx context.Context, p *model.Payment, providerRef string) error {
	claimed, err := uc.payments.MarkTerminal(ctx, repository.NoTX, p.ID, model.PaymentStatusFailed, providerRef, nil)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}
	metrics.IncPayment(string(p.Provider), string(model.PaymentStatusFailed))
	courseName, levelName := uc.names(ctx, p)
	uc.notifier.NotifyPaymentFailed(ctx, p.UserID, courseName, levelName, p.Reference)
	uc.log.Info().Str("reference", p.Reference).Str("provider", string(p.Provider)).Msg("payment marked failed")
	return nil
}

func (uc *paymentUC) ReconcileStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error) {
	cutoff := uc.clock().Add(-staleAfter)
	pending, err := uc.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, limit)
	if err != nil {
		return 0, err
	}
	attempted := 0
	for _, p := range pending {
		key := "payment:ref:" + p.Reference
		token, err := uc.locker.TryLock(ctx, key, lockTTL)
		if err != nil {
			continue // a live webhook delivery owns this reference
		}
		attempted++
		if err := uc.Finalize(ctx, p.Reference); err != nil {
			uc.log.Warn().Err(err).Str("reference", p.Reference).Msg("reconcile attempt failed")
		}
		if err := uc.locker.Unlock(ctx, key, token); err != nil {
			uc.log.Warn().Err(err).Str("reference", p.Reference).Msg("unlock failed")
		}
	}
	return attempted, nil
}

func (uc *paymentUC) GetByReference(ctx context.Context, reference string) (*model.Payment, error) {
	return uc.payments.FindByReference(ctx, repository.NoTX, reference)
}

func (uc *paymentUC) Revenue(ctx context.Context, period string) (int64, error) {
	switch period {
	case "week", "month", "year":
	default:
		return 0, fmt.Errorf("%w: period %q", domain.ErrInvalidArgument, period)
	}
	return uc.payments.SumSucceededByPeriod(ctx, repository.NoTX, period)
}

// names resolves display names for user-facing messages; lookups are best
// effort because a missing name must not block a notification.
func (uc *paymentUC) names(ctx context.Context, p *model.Payment) (string, string) {
	courseName, levelName := p.CourseID, p.LevelID
	if c, err := uc.courses.FindCourse(ctx, repository.NoTX, p.CourseID); err == nil {
		courseName = c.Name
	}
	if l, err := uc.courses.FindLevel(ctx, repository.NoTX, p.LevelID); err == nil {
		levelName = l.Name
	}
	return courseName, levelName
}

// newReference mints the internal payment reference carried through the
// provider round-trip. ULIDs keep references sortable by creation time.
func newReference() string {
	return "EDU_" + ulid.Make().String()
}
