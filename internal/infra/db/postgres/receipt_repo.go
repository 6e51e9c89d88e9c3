package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/repository"
)

var _ repository.ReceiptRepository = (*receiptRepo)(nil)

type receiptRepo struct{ pool *pgxpool.Pool }

func NewReceiptRepo(pool *pgxpool.Pool) *receiptRepo {
	return &receiptRepo{pool: pool}
}

func (r *receiptRepo) Save(ctx context.Context, tx repository.Tx, rc *model.Receipt) error {
	// payment_id is unique; a second generate call for the same payment is a no-op.
	const q = `
INSERT INTO receipts (id, payment_id, number, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (payment_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q, rc.ID, rc.PaymentID, rc.Number, rc.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *receiptRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Receipt, error) {
	const q = `SELECT id, payment_id, number, created_at FROM receipts WHERE payment_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, err
	}
	rc := &model.Receipt{}
	if err := row.Scan(&rc.ID, &rc.PaymentID, &rc.Number, &rc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rc, nil
}
