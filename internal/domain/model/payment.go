package model

import "time"

type Provider string

const (
	ProviderPaystack Provider = "paystack"
	ProviderMonnify  Provider = "monnify"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending" // created at enrollment; awaiting provider outcome
	PaymentStatusSuccess PaymentStatus = "success" // verified OK at provider
	PaymentStatusFailed  PaymentStatus = "failed"  // verification failed or provider reported failure
)

// IsTerminal reports whether no further status transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed
}

// Payment records one payment attempt against an external provider.
// Reference is the provider-visible idempotency key: unique, immutable,
// stored byte-exact as the provider echoes it back.
type Payment struct {
	ID          string // UUID
	UserID      string // UUID
	CourseID    string // UUID
	LevelID     string // UUID
	AmountMinor int64  // minor currency units (kobo), to avoid float errors
	Currency    string
	Provider    Provider
	Reference   string
	Status      PaymentStatus
	ProviderRef string // provider-side transaction id, set after successful verification
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time // set when status becomes success
}
