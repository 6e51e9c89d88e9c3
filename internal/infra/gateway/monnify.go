package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*MonnifyGateway)(nil)

// MonnifyGateway talks to Monnify with direct HTTP calls, authenticating
// each request with basic auth of apiKey:secretKey. Monnify expresses
// amounts in major units, so conversion goes through decimal rather than
// float division.
type MonnifyGateway struct {
	apiKey       string
	secretKey    string
	contractCode string
	baseURL      string
	client       *http.Client
}

func NewMonnifyGateway(apiKey, secretKey, contractCode, baseURL string, timeout time.Duration) *MonnifyGateway {
	if baseURL == "" {
		baseURL = "https://api.monnify.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MonnifyGateway{
		apiKey:       apiKey,
		secretKey:    secretKey,
		contractCode: contractCode,
		baseURL:      baseURL,
		client:       &http.Client{Timeout: timeout},
	}
}

func (g *MonnifyGateway) Name() model.Provider { return model.ProviderMonnify }

type monnifyInitRequest struct {
	Amount           decimal.Decimal `json:"amount"` // major units
	CustomerEmail    string          `json:"customerEmail"`
	PaymentReference string          `json:"paymentReference"`
	PaymentDesc      string          `json:"paymentDescription"`
	CurrencyCode     string          `json:"currencyCode"`
	ContractCode     string          `json:"contractCode"`
	RedirectURL      string          `json:"redirectUrl,omitempty"`
}

type monnifyEnvelope struct {
	RequestSuccessful bool            `json:"requestSuccessful"`
	ResponseMessage   string          `json:"responseMessage"`
	ResponseBody      json.RawMessage `json:"responseBody"`
}

type monnifyInitBody struct {
	CheckoutURL          string `json:"checkoutUrl"`
	TransactionReference string `json:"transactionReference"`
}

type monnifyTransactionBody struct {
	PaymentStatus        string          `json:"paymentStatus"` // "PAID" | "PENDING" | "FAILED" | ...
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	TransactionReference string          `json:"transactionReference"`
}

func (g *MonnifyGateway) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (adapter.InitResult, error) {
	major := decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100))
	body, err := json.Marshal(monnifyInitRequest{
		Amount:           major,
		CustomerEmail:    email,
		PaymentReference: reference,
		PaymentDesc:      "course enrollment",
		CurrencyCode:     "NGN",
		ContractCode:     g.contractCode,
		RedirectURL:      callbackURL,
	})
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("marshal init request: %w", err)
	}

	url := g.baseURL + "/api/v1/merchant/transactions/init-transaction"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(g.apiKey, g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("%w: monnify init: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.InitResult{}, fmt.Errorf("%w: read init response: %v", domain.ErrTransport, err)
	}

	var env monnifyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return adapter.InitResult{OK: false, Message: fmt.Sprintf("unparseable provider response (HTTP %d)", resp.StatusCode)}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.RequestSuccessful {
		return adapter.InitResult{OK: false, Message: env.ResponseMessage}, nil
	}

	var b monnifyInitBody
	if err := json.Unmarshal(env.ResponseBody, &b); err != nil {
		return adapter.InitResult{OK: false, Message: "malformed responseBody"}, nil
	}
	return adapter.InitResult{OK: true, PaymentURL: b.CheckoutURL, Message: env.ResponseMessage}, nil
}

func (g *MonnifyGateway) VerifyTransaction(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	url := g.baseURL + "/api/v2/transactions/" + reference
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(g.apiKey, g.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("%w: monnify verify: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapter.VerifyResult{}, fmt.Errorf("%w: read verify response: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode >= 500 {
		return adapter.VerifyResult{Status: adapter.VerifyPending}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	}

	var env monnifyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || !env.RequestSuccessful {
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	}
	var b monnifyTransactionBody
	if err := json.Unmarshal(env.ResponseBody, &b); err != nil {
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	}

	switch b.PaymentStatus {
	case "PAID":
		minor := b.AmountPaid.Mul(decimal.NewFromInt(100)).IntPart()
		return adapter.VerifyResult{
			Status:      adapter.VerifySuccess,
			AmountMinor: minor,
			ProviderRef: b.TransactionReference,
		}, nil
	case "FAILED", "CANCELLED", "EXPIRED", "REVERSED":
		return adapter.VerifyResult{Status: adapter.VerifyFailed}, nil
	default:
		return adapter.VerifyResult{Status: adapter.VerifyPending}, nil
	}
}
