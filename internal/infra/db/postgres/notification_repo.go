package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*notificationRepo)(nil)

type notificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepo(pool *pgxpool.Pool) *notificationRepo {
	return &notificationRepo{pool: pool}
}

func (r *notificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, type, title, message, is_read, email_sent, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q, n.ID, n.UserID, n.Type, n.Title, n.Message, n.IsRead, n.EmailSent, n.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, user_id, type, title, message, is_read, email_sent, created_at
FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2;`

	rows, err := queryRows(ctx, r.pool, tx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.EmailSent, &n.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE notifications SET is_read=TRUE WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	return err
}

func (r *notificationRepo) MarkEmailSent(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE notifications SET email_sent=TRUE WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	return err
}

// ExistsForDay backs the per-day dedup of lifecycle reminders.
// SELECT EXISTS stops on the first match.
func (r *notificationRepo) ExistsForDay(ctx context.Context, tx repository.Tx, userID string, typ model.NotificationType, day time.Time) (bool, error) {
	const q = `
SELECT EXISTS(
  SELECT 1 FROM notifications
  WHERE user_id=$1 AND type=$2 AND created_at::date = $3::date
);`

	row, err := pickRow(ctx, r.pool, tx, q, userID, typ, day)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
