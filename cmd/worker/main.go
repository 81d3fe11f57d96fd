package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	syncapp "github.com/relist/backend/internal/application/sync"
	"github.com/relist/backend/internal/infrastructure/cache"
	"github.com/relist/backend/internal/infrastructure/config"
	"github.com/relist/backend/internal/infrastructure/logger"
	"github.com/relist/backend/internal/infrastructure/marketplace"
	"github.com/relist/backend/internal/infrastructure/persistence"
	"github.com/relist/backend/internal/infrastructure/scheduler"
	"github.com/relist/backend/internal/infrastructure/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Relist listing import worker",
		zap.String("env", cfg.App.Env),
		zap.Int("concurrency", cfg.Sync.Concurrency),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName + "-worker",
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter("relist-sync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize pipeline metrics", zap.Error(err))
	}

	sellerRepo := persistence.NewGormSellerRepository(db.DB)
	itemRepo := persistence.NewGormCatalogItemRepository(db.DB)

	ebayAdapter, err := marketplace.NewEbayAdapter(&marketplace.EbayConfig{
		APIBaseURL:     cfg.Ebay.APIBaseURL,
		AuthBaseURL:    cfg.Ebay.AuthBaseURL,
		ClientID:       cfg.Ebay.ClientID,
		ClientSecret:   cfg.Ebay.ClientSecret,
		SiteID:         cfg.Ebay.SiteID,
		TimeoutSeconds: cfg.Ebay.TimeoutSeconds,
		EntriesPerPage: cfg.Ebay.EntriesPerPage,
	})
	if err != nil {
		log.Fatal("Failed to initialize marketplace adapter", zap.Error(err))
	}

	redisOpts := asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	continuation := scheduler.NewAsynqContinuation(redisOpts, log)
	defer func() {
		if err := continuation.Close(); err != nil {
			log.Warn("Error closing task client", zap.Error(err))
		}
	}()

	listingSync, err := syncapp.NewListingSyncService(sellerRepo, itemRepo, ebayAdapter, continuation, syncapp.ListingSyncConfig{
		PageDelay: cfg.Sync.PageDelay,
		MaxPages:  cfg.Sync.MaxPages,
		PerPage:   cfg.Sync.PerPage,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize listing sync service", zap.Error(err))
	}
	listingSync.SetMetrics(syncMetrics)

	guard, err := cache.OpenIdempotencyStore(cfg.Redis, log, false)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := guard.Close(); err != nil {
			log.Warn("Error closing idempotency store", zap.Error(err))
		}
	}()

	worker, err := scheduler.NewWorker(scheduler.WorkerConfig{
		RedisOpts:   redisOpts,
		Concurrency: cfg.Sync.Concurrency,
		Syncer:      listingSync,
		Guard:       guard,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("Failed to initialize worker", zap.Error(err))
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down worker...")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Worker stopped", zap.Error(err))
	}
	log.Info("Worker exited gracefully")
}
