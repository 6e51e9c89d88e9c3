package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/infra/gateway"
	"edu-subscription-platform/internal/infra/metrics"
)

// maxWebhookBody caps inbound webhook payloads. Real provider events are a
// few hundred bytes; anything larger is hostile or broken.
const maxWebhookBody = 64 << 10

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

type monnifyEvent struct {
	EventType string `json:"eventType"`
	EventData struct {
		PaymentReference string `json:"paymentReference"`
		PaymentStatus    string `json:"paymentStatus"`
	} `json:"eventData"`
}

func (s *Server) paystackWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readWebhookBody(w, r)
		if !ok {
			return
		}
		sig := r.Header.Get("x-paystack-signature")
		if !gateway.VerifySignature(model.ProviderPaystack, body, sig, s.paystackSecret) {
			metrics.IncWebhook(string(model.ProviderPaystack), "bad_signature")
			s.log.Warn().Str("provider", "paystack").Msg("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		var evt paystackEvent
		if err := json.Unmarshal(body, &evt); err != nil || evt.Data.Reference == "" {
			// Authenticated but unusable; ack so the provider stops retrying.
			metrics.IncWebhook(string(model.ProviderPaystack), "malformed")
			w.WriteHeader(http.StatusOK)
			return
		}
		if !strings.HasPrefix(evt.Event, "charge.") {
			metrics.IncWebhook(string(model.ProviderPaystack), "ignored_event")
			w.WriteHeader(http.StatusOK)
			return
		}

		s.dispatchWebhook(w, r, model.ProviderPaystack, evt.Data.Reference)
	}
}

func (s *Server) monnifyWebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readWebhookBody(w, r)
		if !ok {
			return
		}
		sig := r.Header.Get("monnify-signature")
		if !gateway.VerifySignature(model.ProviderMonnify, body, sig, s.monnifySecret) {
			metrics.IncWebhook(string(model.ProviderMonnify), "bad_signature")
			s.log.Warn().Str("provider", "monnify").Msg("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		var evt monnifyEvent
		if err := json.Unmarshal(body, &evt); err != nil || evt.EventData.PaymentReference == "" {
			metrics.IncWebhook(string(model.ProviderMonnify), "malformed")
			w.WriteHeader(http.StatusOK)
			return
		}

		s.dispatchWebhook(w, r, model.ProviderMonnify, evt.EventData.PaymentReference)
	}
}

func (s *Server) readWebhookBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return nil, false
	}
	if len(body) > maxWebhookBody {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return body, true
}

// dispatchWebhook hands the reference to the use case and maps its verdict
// to a response. Every recognized-but-unactionable path still acks with 200
// so the provider does not redeliver forever.
func (s *Server) dispatchWebhook(w http.ResponseWriter, r *http.Request, provider model.Provider, reference string) {
	err := s.paymentUC.HandleWebhookEvent(r.Context(), provider, reference)
	switch {
	case err == nil:
		metrics.IncWebhook(string(provider), "accepted")
	case errors.Is(err, domain.ErrAlreadyTerminal):
		metrics.IncWebhook(string(provider), "duplicate")
	case errors.Is(err, domain.ErrNotFound):
		metrics.IncWebhook(string(provider), "unknown_reference")
		s.log.Warn().Str("provider", string(provider)).Str("reference", reference).Msg("webhook for unknown reference")
	default:
		metrics.IncWebhook(string(provider), "error")
		s.log.Error().Err(err).Str("provider", string(provider)).Str("reference", reference).Msg("webhook handling failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
