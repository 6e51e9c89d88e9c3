package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/repository"
)

var _ repository.SubscriptionHistoryRepository = (*historyRepo)(nil)

type historyRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionHistoryRepo(pool *pgxpool.Pool) *historyRepo {
	return &historyRepo{pool: pool}
}

// Append only. There is intentionally no update or delete statement in this file.
func (r *historyRepo) Append(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error {
	const q = `
INSERT INTO subscription_histories (id, subscription_id, event, prev_end_date, new_end_date, payment_id, created_at)
VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7);`

	_, err := execSQL(ctx, r.pool, tx, q, h.ID, h.SubscriptionID, h.Event, h.PrevEndDate, h.NewEndDate, h.PaymentID, h.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *historyRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionHistory, error) {
	const q = `
SELECT id, subscription_id, event, prev_end_date, new_end_date, COALESCE(payment_id,''), created_at
FROM subscription_histories WHERE subscription_id=$1 ORDER BY created_at ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SubscriptionHistory
	for rows.Next() {
		h := &model.SubscriptionHistory{}
		if err := rows.Scan(&h.ID, &h.SubscriptionID, &h.Event, &h.PrevEndDate, &h.NewEndDate, &h.PaymentID, &h.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
