package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"edu-subscription-platform/internal/domain"
	"edu-subscription-platform/internal/domain/model"
)

type enrollmentCreateRequest struct {
	UserID   string `json:"user_id"`
	LevelID  string `json:"level_id"`
	Provider string `json:"provider"`
}

func (req enrollmentCreateRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.LevelID, validation.Required),
		validation.Field(&req.Provider, validation.Required, validation.In(
			string(model.ProviderPaystack), string(model.ProviderMonnify),
		)),
	)
}

// enrollmentCreateHandler starts a checkout: it creates the pending payment
// and returns the provider URL the client redirects the student to.
func (s *Server) enrollmentCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollmentCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		p, payURL, err := s.paymentUC.Initiate(r.Context(), req.UserID, req.LevelID, model.Provider(req.Provider))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "level not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrUnknownProvider):
				http.Error(w, "unknown provider", http.StatusBadRequest)
			default:
				s.log.Error().Err(err).Msg("enrollment initiation failed")
				http.Error(w, "failed to initiate payment", http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"reference":   p.Reference,
			"payment_url": payURL,
			"amount":      p.AmountMinor,
			"currency":    p.Currency,
		})
	}
}

func (s *Server) paymentGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := chi.URLParam(r, "reference")
		p, err := s.paymentUC.GetByReference(r.Context(), reference)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "payment not found", http.StatusNotFound)
				return
			}
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"reference":  p.Reference,
			"status":     p.Status,
			"provider":   p.Provider,
			"amount":     p.AmountMinor,
			"currency":   p.Currency,
			"created_at": p.CreatedAt,
			"paid_at":    p.PaidAt,
		})
	}
}

func (s *Server) subscriptionListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		subs, err := s.subUC.ListByUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func (s *Server) subscriptionHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		entries, err := s.subUC.History(r.Context(), id)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) notificationListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		items, err := s.notifUC.ListByUser(r.Context(), userID, limit)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) notificationReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.notifUC.MarkRead(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "notification not found", http.StatusNotFound)
				return
			}
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) revenueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = "month"
		}
		total, err := s.paymentUC.Revenue(r.Context(), period)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, "period must be week, month or year", http.StatusBadRequest)
				return
			}
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"period": period, "total_minor": total})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
