package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Payment / reconciliation
	ErrAlreadyTerminal      = errors.New("payment already in a terminal state")
	ErrReferenceClaimed     = errors.New("payment reference is being processed")
	ErrTransport            = errors.New("provider transport error")
	ErrUnknownProvider      = errors.New("unknown payment provider")
	ErrNoActiveSubscription = errors.New("no active subscription")
)
