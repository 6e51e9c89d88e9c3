package adapter

import (
	"context"

	"edu-subscription-platform/internal/domain/model"
)

// InitResult is the outcome of initializing a transaction with a provider.
// Ordinary provider-side rejections come back as OK=false with a message,
// not as an error.
type InitResult struct {
	OK         bool
	PaymentURL string
	Message    string
}

type VerifyStatus int

const (
	VerifyPending VerifyStatus = iota // provider has no final outcome yet
	VerifySuccess                     // provider confirms a completed charge
	VerifyFailed                      // provider confirms the charge did not succeed
)

// VerifyResult is the provider's answer to a server-side verification call.
type VerifyResult struct {
	Status      VerifyStatus
	AmountMinor int64
	ProviderRef string
}

// PaymentGateway abstracts one payment provider. Authentication and
// request/response shapes are encapsulated entirely behind it.
//
// A non-nil error from either call is transport-level only (timeout, DNS,
// connection refused) and wraps domain.ErrTransport; callers must treat it
// as retryable, never as a verification failure.
type PaymentGateway interface {
	Name() model.Provider
	InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (InitResult, error)
	VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error)
}
