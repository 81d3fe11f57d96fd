package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	syncapp "github.com/relist/backend/internal/application/sync"
	"github.com/relist/backend/internal/domain/pricing"
	"github.com/relist/backend/internal/domain/scraping"
	"github.com/relist/backend/internal/infrastructure/config"
	"github.com/relist/backend/internal/infrastructure/fx"
	"github.com/relist/backend/internal/infrastructure/logger"
	"github.com/relist/backend/internal/infrastructure/marketplace"
	"github.com/relist/backend/internal/infrastructure/persistence"
	"github.com/relist/backend/internal/infrastructure/scheduler"
	"github.com/relist/backend/internal/infrastructure/scraper"
	"github.com/relist/backend/internal/infrastructure/scraper/suppliers"
	"github.com/relist/backend/internal/infrastructure/telemetry"
	"github.com/relist/backend/internal/interfaces/http/handler"
	"github.com/relist/backend/internal/interfaces/http/middleware"
	"github.com/relist/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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

	log.Info("Starting Relist Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Continuous profiling (no-op when disabled)
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler stop failed", zap.Error(err))
		}
	}()

	// OTEL log export: replace the base logger with one that also ships
	// records to the collector
	logsProvider, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL logs provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Logs provider shutdown failed", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		log = telemetry.NewBridgedLogger(&logger.Config{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			Output:     cfg.Log.Output,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		}, logsProvider, cfg.Telemetry.ServiceName)
	}

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Telemetry providers (no-op when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(rootCtx, telemetry.TracingConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Database query tracing rides on the tracer provider registered above
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meterProvider.Meter("relist-sync"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to initialize pipeline metrics", zap.Error(err))
	}

	dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("relist-db"), telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to initialize database metrics", zap.Error(err))
	}
	if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
		log.Fatal("Failed to register database metrics plugin", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		dbMetrics.SetSQLDB(sqlDB)
		go dbMetrics.StartPoolStatsCollection(rootCtx)
	}

	// Repositories
	sellerRepo := persistence.NewGormSellerRepository(db.DB)
	itemRepo := persistence.NewGormCatalogItemRepository(db.DB)
	rateRepo := persistence.NewGormRateRepository(db.DB)

	// Supplier scraping engine
	navigator, err := scraper.NewChromedpNavigator(&scraper.NavigatorConfig{
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		ProxyURL:          cfg.Scraper.ProxyURL,
		RemoteURL:         cfg.Scraper.RemoteURL,
		Headless:          cfg.Scraper.Headless,
		NoSandbox:         cfg.Scraper.NoSandbox,
		BlockResources:    cfg.Scraper.BlockResources,
		Logger:            log,
	})
	if err != nil {
		log.Fatal("Failed to initialize browser navigator", zap.Error(err))
	}
	defer func() {
		_ = navigator.Close()
	}()

	registry := scraping.NewExtractorRegistry(
		suppliers.NewAmazonExtractor(),
		suppliers.NewRakutenExtractor(),
		suppliers.NewYahooExtractor(),
		suppliers.NewMercariExtractor(),
	)
	scrapeEngine := scraper.NewEngine(navigator, registry, scraper.EngineConfig{
		BatchSize:   cfg.Scraper.BatchSize,
		MaxAttempts: cfg.Scraper.MaxAttempts,
		RetryDelay:  cfg.Scraper.RetryDelay,
		WaitTimeout: cfg.Scraper.WaitTimeout,
	}, log)
	scrapeEngine.SetRecorder(syncMetrics)

	// Pricing and classification
	calculator := pricing.NewDefaultCalculator()
	classifier := syncapp.NewClassifier(calculator, rateRepo, log)

	supplierSync := syncapp.NewSupplierSyncService(itemRepo, scrapeEngine, classifier, log)
	supplierSync.SetMetrics(syncMetrics)

	// Marketplace adapter and listing import
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

	// Exchange rate refresher
	refresher, err := fx.NewRefresher(fx.Config{
		Endpoint:        cfg.Fx.Endpoint,
		Base:            cfg.Fx.Base,
		Quote:           cfg.Fx.Quote,
		RefreshInterval: cfg.Fx.RefreshInterval,
		TimeoutSeconds:  cfg.Fx.TimeoutSeconds,
	}, rateRepo, log)
	if err != nil {
		log.Fatal("Failed to initialize exchange rate refresher", zap.Error(err))
	}
	refresher.SetRecorder(syncMetrics)
	go refresher.Run(rootCtx)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Profiling())

	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	engine.Use(middleware.RateLimit(rateLimiter))

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", healthHandler(db, log))

	// API routes
	syncHandler := handler.NewSyncHandler(supplierSync, listingSync, log)
	systemHandler := handler.NewSystemHandler()

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	rootCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
