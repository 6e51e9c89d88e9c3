package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"edu-subscription-platform/internal/config"
	"edu-subscription-platform/internal/usecase"
)

// Server hosts the webhook endpoints and the REST API on one listener.
type Server struct {
	paymentUC usecase.PaymentUseCase
	subUC     usecase.SubscriptionUseCase
	notifUC   usecase.NotificationUseCase

	paystackSecret string
	monnifySecret  string
	jwtSecret      string
	addr           string

	httpSrv *http.Server
	log     *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	paymentUC usecase.PaymentUseCase,
	subUC usecase.SubscriptionUseCase,
	notifUC usecase.NotificationUseCase,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymentUC:      paymentUC,
		subUC:          subUC,
		notifUC:        notifUC,
		paystackSecret: cfg.Payment.Paystack.SecretKey,
		monnifySecret:  cfg.Payment.Monnify.SecretKey,
		jwtSecret:      cfg.Server.JWTSecret,
		addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		log:            &srvLog,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/paystack", s.paystackWebhookHandler())
		r.Post("/monnify", s.monnifyWebhookHandler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/enrollments", s.enrollmentCreateHandler())
		r.Get("/payments/{reference}", s.paymentGetHandler())
		r.Get("/subscriptions", s.subscriptionListHandler())
		r.Get("/subscriptions/{id}/history", s.subscriptionHistoryHandler())
		r.Get("/notifications", s.notificationListHandler())
		r.Post("/notifications/{id}/read", s.notificationReadHandler())

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Get("/revenue", s.revenueHandler())
		})
	})

	return r
}

func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.Router()}
	s.log.Info().Str("addr", s.addr).Msg("starting http server")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
