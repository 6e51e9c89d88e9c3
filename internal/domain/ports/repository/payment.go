package repository

import (
	"context"
	"time"

	"edu-subscription-platform/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Payment, error)

	// MarkTerminal flips a pending payment to the given terminal status.
	// It returns false when the payment was no longer pending, which is the
	// idempotency signal: the caller that observes false must not run any
	// success/failure side effects.
	MarkTerminal(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerRef string, paidAt *time.Time) (bool, error)

	// ListPendingOlderThan feeds the reconciliation sweep.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	SumSucceededByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}

type ReceiptRepository interface {
	Save(ctx context.Context, tx Tx, r *model.Receipt) error
	FindByPaymentID(ctx context.Context, tx Tx, paymentID string) (*model.Receipt, error)
}
