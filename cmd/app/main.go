package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edu-subscription-platform/internal/config"
	"edu-subscription-platform/internal/domain/model"
	"edu-subscription-platform/internal/domain/ports/adapter"
	pg "edu-subscription-platform/internal/infra/db/postgres"
	"edu-subscription-platform/internal/infra/email"
	"edu-subscription-platform/internal/infra/gateway"
	"edu-subscription-platform/internal/infra/logging"
	"edu-subscription-platform/internal/infra/metrics"
	"edu-subscription-platform/internal/infra/notify"
	"edu-subscription-platform/internal/infra/queue"
	"edu-subscription-platform/internal/infra/receipt"
	red "edu-subscription-platform/internal/infra/redis"
	"edu-subscription-platform/internal/infra/sched"
	"edu-subscription-platform/internal/infra/web"
	"edu-subscription-platform/internal/infra/worker"
	"edu-subscription-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	historyRepo := pg.NewSubscriptionHistoryRepo(pool)
	notifRepo := pg.NewNotificationRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)
	receiptRepo := pg.NewReceiptRepo(pool)
	userDir := pg.NewUserDirectory(pool)
	txm := pg.NewTxManager(pool)

	// ---- Background queue (emails, receipt rendering) ----
	qClient := queue.NewClient(&cfg.Redis, logger)
	defer qClient.Close()
	sender := email.NewSMTPSender(cfg.SMTP)

	qServer := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency, logger)
	qServer.Handle(queue.TypeNotificationEmail, queue.NewNotificationEmailHandler(sender, notifRepo, logger))
	qServer.Handle(queue.TypeReceiptRender, queue.NewReceiptEmailHandler(sender, logger))
	go func() {
		if err := qServer.Start(); err != nil {
			logger.Error().Err(err).Msg("queue server stopped")
		}
	}()

	dispatcher := notify.NewDispatcher(notifRepo, userDir, qClient, logger)
	receiptGen := receipt.NewGenerator(receiptRepo, paymentRepo, courseRepo, userDir, qClient, logger)

	// ---- Payment gateways ----
	gateways := map[model.Provider]adapter.PaymentGateway{
		model.ProviderPaystack: gateway.NewPaystackGateway(
			cfg.Payment.Paystack.SecretKey, cfg.Payment.Paystack.BaseURL, cfg.Payment.VerifyTimeout),
		model.ProviderMonnify: gateway.NewMonnifyGateway(
			cfg.Payment.Monnify.APIKey, cfg.Payment.Monnify.SecretKey,
			cfg.Payment.Monnify.ContractCode, cfg.Payment.Monnify.BaseURL, cfg.Payment.VerifyTimeout),
	}
	callbacks := map[model.Provider]string{
		model.ProviderPaystack: cfg.Payment.Paystack.CallbackURL,
		model.ProviderMonnify:  cfg.Payment.Monnify.CallbackURL,
	}

	// ---- Webhook continuation pool ----
	taskPool := worker.NewPool(cfg.Worker.PoolSize, logger)
	taskPool.Start(ctx)
	defer taskPool.Stop()

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, historyRepo, courseRepo, logger)
	notifUC := usecase.NewNotificationUseCase(notifRepo, subRepo, courseRepo, dispatcher, cfg.Scheduler.WarningWindowsDays, logger)
	paymentUC := usecase.NewPaymentUseCase(
		paymentRepo, courseRepo, userDir, txm, subUC,
		gateways, callbacks, dispatcher, receiptGen, locker, taskPool, logger)

	// ---- Scheduled workers ----
	lifecycle := sched.NewLifecycleWorker(cfg.Scheduler.LifecycleCron, cfg.Scheduler.RetryBackoff, subUC, notifUC, logger)
	go func() { _ = lifecycle.Start(ctx) }()

	reconciler := sched.NewPaymentReconciler(paymentUC, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileStale, logger)
	go reconciler.Start(ctx)

	// ---- HTTP ----
	srv := web.NewServer(cfg, paymentUC, subUC, notifUC, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	qServer.Shutdown()
}
