package repository

import "context"

// Users are owned by the identity provider; this backend only needs an
// address to send mail to.
type UserDirectory interface {
	FindEmail(ctx context.Context, tx Tx, userID string) (string, error)
}
