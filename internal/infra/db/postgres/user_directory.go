package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/ports/repository"
)

var _ repository.UserDirectory = (*userDirectory)(nil)

// userDirectory reads the identity provider's users table.
type userDirectory struct{ pool *pgxpool.Pool }

func NewUserDirectory(pool *pgxpool.Pool) *userDirectory {
	return &userDirectory{pool: pool}
}

func (r *userDirectory) FindEmail(ctx context.Context, tx repository.Tx, userID string) (string, error) {
	const q = `SELECT email FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return "", err
	}
	var email string
	if err := row.Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", domain.ErrReadDatabaseRow
	}
	return email, nil
}
