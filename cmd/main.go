package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tradesage/internal/adapters/ai"
	"tradesage/internal/adapters/config"
	"tradesage/internal/adapters/errors/noop"
	"tradesage/internal/adapters/errors/sentry"
	"tradesage/internal/adapters/postgres"
	"tradesage/internal/adapters/redis"
	"tradesage/internal/api"
	"tradesage/internal/api/health"
	"tradesage/internal/ml"
	"tradesage/internal/pipeline"
	pgrepo "tradesage/internal/repository/postgres"
	"tradesage/internal/services/predictor"
	"tradesage/internal/services/research"
	"tradesage/internal/workers"
	"tradesage/pkg/errors"
	"tradesage/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Services
	marketData := research.NewService(cfg.MarketData, redisClient)

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}

	orchestrator := pipeline.NewOrchestrator(generator, marketData, errorTracker, pipeline.Config{
		LiveResearch: cfg.Research.LiveData,
	})

	repo := pgrepo.NewHypothesisRepository(pgClient.DB())

	predictorService := initPredictor(cfg, marketData, log)

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewQuoteWarmer(
		repo,
		marketData,
		cfg.Workers.QuoteWarmerInterval,
		cfg.Workers.QuoteWarmerSymbols,
		cfg.Workers.QuoteWarmerEnabled,
	))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// HTTP API
	handler := api.NewHandler(orchestrator, repo, predictorService, log)
	healthHandler := health.New(log, pgClient, redisClient, cfg.App.Name, cfg.App.Version)
	server := api.NewServer(api.ServerConfig{
		Port:         cfg.Server.Port,
		ServiceName:  cfg.App.Name,
		Version:      cfg.App.Version,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handler, healthHandler, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, server, scheduler, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initPredictor loads the ONNX model and scaler when the predictor is
// enabled; otherwise returns a disabled service so the API can answer
// cleanly with 503.
func initPredictor(cfg *config.Config, candles predictor.CandleSource, log *logger.Logger) *predictor.Service {
	if !cfg.Predictor.Enabled {
		log.Info("Price predictor disabled")
		return predictor.NewService(nil, nil, candles)
	}

	model, err := ml.LoadPriceModel(cfg.Predictor.ModelPath)
	if err != nil {
		log.Warnf("Failed to load price model, predictor disabled: %v", err)
		return predictor.NewService(nil, nil, candles)
	}

	scaler, err := ml.LoadScaler(cfg.Predictor.ScalerPath)
	if err != nil {
		log.Warnf("Failed to load feature scaler, predictor disabled: %v", err)
		model.Destroy()
		return predictor.NewService(nil, nil, candles)
	}

	log.Infof("Price predictor initialized from %s", cfg.Predictor.ModelPath)
	return predictor.NewService(model, scaler, candles)
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	server *api.Server,
	scheduler *workers.Scheduler,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker scheduler stop: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
