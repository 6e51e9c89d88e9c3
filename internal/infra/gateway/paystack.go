package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*PaystackGateway)(nil)

// PaystackGateway talks to Paystack with direct HTTP calls.
// Amounts are in minor units (kobo), which is Paystack's native unit.
type PaystackGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackGateway(secretKey, baseURL string, timeout time.Duration) *PaystackGateway {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaystackGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *PaystackGateway) Name() model.Provider { return model.ProviderPaystack }

type paystackInitRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"` // kobo
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"` // "success" | "failed" | "abandoned" | ...
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func (g *PaystackGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (adapter.InitResult, error) {
	body, err := json.Marshal(paystackInitRequest{
		Email:       email,
		Amount:      amountMinor,
		Reference:   reference,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("marshal init request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("create request: %w", err)
	}
	g.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("%w: paystack initialize: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("%w: read initialize response: %v", domain.ErrTransport, err)
	}

	var out paystackInitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return adapter.InitResult{OK: false, Message: fmt.Sprintf("unparseable provider response (HTTP %d)", resp.StatusCode)}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Status {
		// Ordinary provider rejection: soft failure, not an error.
		return adapter.InitResult{OK: false, Message: out.Message}, nil
	}
	return adapter.InitResult{OK: true, PaymentURL: out.Data.AuthorizationURL, Message: out.Message}, nil
}

func (g *PaystackGateway) VerifyTransaction(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("create request: %w", err)
	}
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("%w: paystack verify: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("%w: read verify response: %v", domain.ErrTransport, err)
	}

	// Provider-side 5xx is indistinguishable from "try again later"; leave
	// the payment pending rather than failing it on Paystack's bad day.
	if resp.StatusCode >= 500 {
		return adapter.VerifyResult{Status: adapter.VerifyPending}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	}

	var out paystackVerifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	}

	switch out.Data.Status {
	case "success":
		return adapter.VerifyResult{
			Status:      adapter.VerifySuccess,
			AmountMinor: out.Data.Amount,
			ProviderRef: fmt.Sprintf("%d", out.Data.ID),
		}, nil
	case "failed", "abandoned", "reversed":
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	default:
		return adapter.VerifyResult{Status: adapter.VerifyPending}, nil
	}
}

func (g *PaystackGateway) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")
}
