package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, course_id, level_id, start_date, end_date, status, renewal_count, payment_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.UserID, &s.CourseID, &s.LevelID, &s.StartDate, &s.EndDate, &s.Status, &s.RenewalCount, &s.PaymentID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, user_id, course_id, level_id, start_date, end_date, status, renewal_count, payment_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  start_date=$5, end_date=$6, status=$7, renewal_count=$8, payment_id=$9, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.CourseID, s.LevelID, s.StartDate, s.EndDate, s.Status, s.RenewalCount, s.PaymentID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) FindLiveByKey(ctx context.Context, tx repository.Tx, userID, courseID, levelID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE user_id=$1 AND course_id=$2 AND level_id=$3 AND status IN ('active','renewed','expiring_soon')
ORDER BY end_date DESC LIMIT 1`
	// Lock the row inside a transaction so a concurrent expiry sweep cannot
	// flip it between our read and the renewal write.
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID, levelID)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

// ExpireDue flips every overdue live row in one statement. The status guard
// in the WHERE clause is what makes the sweep idempotent: a row renewed
// between runs no longer matches, and a second immediate run matches nothing.
func (r *subscriptionRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Subscription, error) {
	q := `
UPDATE subscriptions
SET status='expired', updated_at=NOW()
WHERE status IN ('active','renewed','expiring_soon') AND end_date <= $1
RETURNING ` + subscriptionColumns + `;`

	rows, err := queryRows(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (r *subscriptionRepo) ListEndingWithin(ctx context.Context, tx repository.Tx, now time.Time, days int) ([]*model.Subscription, error) {
	from := now.Add(time.Duration(days) * 24 * time.Hour)
	to := from.Add(24 * time.Hour)
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions
WHERE status IN ('active','renewed','expiring_soon') AND end_date >= $1 AND end_date < $2
ORDER BY end_date ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (r *subscriptionRepo) MarkExpiringSoon(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE subscriptions SET status='expiring_soon', updated_at=NOW() WHERE id=$1 AND status IN ('active','renewed');`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func collectSubscriptions(rows pgx.Rows) ([]*model.Subscription, error) {
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
