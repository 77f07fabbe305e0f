package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ficmart/charge-gateway/internal/application"
	"github.com/ficmart/charge-gateway/internal/application/services"
	"github.com/ficmart/charge-gateway/internal/config"
	"github.com/ficmart/charge-gateway/internal/infrastructure/cache"
	"github.com/ficmart/charge-gateway/internal/infrastructure/messaging/kafka"
	"github.com/ficmart/charge-gateway/internal/infrastructure/persistence/postgres"
	"github.com/ficmart/charge-gateway/internal/infrastructure/processor"
	"github.com/ficmart/charge-gateway/internal/interfaces/rest/handlers"
	"github.com/ficmart/charge-gateway/internal/interfaces/rest/middleware"
	"github.com/ficmart/charge-gateway/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting charge gateway",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tc := postgres.NewTransactionCoordinator(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	idempotencyRepo := postgres.NewIdempotencyRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Outbox.SendTimeout, logger)
	if err != nil {
		logger.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	var responseCache application.ResponseCache
	if cfg.Cache.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Cache)
		defer redisCache.Close()
		responseCache = redisCache
		logger.Info("response cache enabled", "addr", cfg.Cache.Addr)
	} else {
		responseCache = cache.NewNoop()
	}

	paymentProcessor := processor.NewStub()

	chargeService := services.NewChargeService(
		tc,
		paymentRepo,
		idempotencyRepo,
		outboxRepo,
		paymentProcessor,
		responseCache,
		cfg.Idempotency,
		logger,
	)
	queryService := services.NewQueryService(paymentRepo)

	h := handlers.NewHandlers(chargeService, queryService, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	router := http.Handler(mux)

	handler := middleware.Recovery(logger)(router)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Correlation()(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	dispatcher := worker.NewOutboxDispatcher(
		tc,
		outboxRepo,
		producer,
		cfg.Outbox,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go dispatcher.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
