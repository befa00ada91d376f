package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	integrationapp "github.com/stocksync/backend/internal/application/integration"
	"github.com/stocksync/backend/internal/infrastructure/auth"
	"github.com/stocksync/backend/internal/infrastructure/cache"
	"github.com/stocksync/backend/internal/infrastructure/config"
	"github.com/stocksync/backend/internal/infrastructure/crypto"
	"github.com/stocksync/backend/internal/infrastructure/ecommerce"
	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/infrastructure/migration"
	"github.com/stocksync/backend/internal/infrastructure/persistence"
	"github.com/stocksync/backend/internal/infrastructure/scheduler"
	"github.com/stocksync/backend/internal/infrastructure/telemetry"
	"github.com/stocksync/backend/internal/interfaces/http/handler"
	"github.com/stocksync/backend/internal/interfaces/http/middleware"
	"github.com/stocksync/backend/internal/interfaces/http/router"
	"github.com/stocksync/backend/migrations"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Telemetry comes first so the OTLP log core can be teed into the logger
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if cfg.Telemetry.LogsEnabled {
		teed, err := logger.New(&logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		}, providers.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		if err != nil {
			log.Fatal("Failed to attach OTLP log core", zap.Error(err))
		}
		log = teed
	}

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log, persistence.Options{
		LogLevel:      logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := runMigrations(&cfg.Database, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Repositories
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	mappingRepo := persistence.NewGormProductMappingRepository(db.DB)
	dismissedRepo := persistence.NewGormDismissedSuggestionRepository(db.DB)
	webhookLogRepo := persistence.NewGormWebhookLogRepository(db.DB)

	// Infrastructure
	cipher, err := crypto.NewCredentialCipher(cfg.Sync.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize credential cipher", zap.Error(err))
	}

	cooldownStore, err := cache.NewCooldownStoreFactory(
		cfg.Sync.CooldownBackend,
		cfg.Redis,
		cache.WithLogger(log),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize cooldown store", zap.Error(err))
	}
	defer func() { _ = cooldownStore.Close() }()

	gateways := ecommerce.NewGatewayFactory(ecommerce.GatewayConfig{
		Timeout:            cfg.Sync.GatewayTimeout,
		Namespace:          cfg.Sync.ConnectorNamespace,
		RateLimitPerSecond: cfg.Sync.RateLimitPerSecond,
		RateLimitBurst:     cfg.Sync.RateLimitBurst,
	}, cipher, nil)

	syncMetrics, err := telemetry.NewSyncMetrics(providers.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Application services
	storeService := integrationapp.NewStoreService(storeRepo, cipher, log)
	mappingService := integrationapp.NewProductMappingService(mappingRepo, productRepo, storeRepo)
	matchingService := integrationapp.NewMatchingService(productRepo, storeRepo, dismissedRepo, mappingService,
		integrationapp.WithMatchingLogger(log),
	)
	catalogSyncService := integrationapp.NewCatalogSyncService(storeRepo, productRepo, gateways, nil, log)
	stockSyncService := integrationapp.NewStockSyncService(
		storeRepo, productRepo, mappingRepo, webhookLogRepo, cooldownStore, gateways,
		integrationapp.WithStockSyncConfig(integrationapp.StockSyncConfig{CooldownWindow: cfg.Sync.CooldownWindow}),
		integrationapp.WithSyncMetrics(syncMetrics),
		integrationapp.WithStockSyncLogger(log),
	)
	webhookLogService := integrationapp.NewWebhookLogService(webhookLogRepo, storeRepo, nil)
	verifier := integrationapp.NewWebhookVerifier(cfg.Sync.WebhookSecret, cfg.Sync.TimestampTolerance, nil)

	// Catalog sync scheduler
	var syncQueue handler.CatalogSyncQueue
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(scheduler.Config{
			Workers:       cfg.Scheduler.MaxConcurrentJobs,
			QueueSize:     cfg.Scheduler.QueueSize,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
		}, catalogSyncService, log)
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start catalog sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := sched.Stop(context.Background()); err != nil {
				log.Warn("Scheduler shutdown incomplete", zap.Error(err))
			}
		}()

		trigger := scheduler.NewCronTrigger(cfg.Scheduler.Interval, sched, storeRepo, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start periodic catalog sync", zap.Error(err))
		}
		defer func() { _ = trigger.Stop(context.Background()) }()

		syncQueue = sched
		log.Info("Catalog sync scheduler started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Int("workers", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// Handlers
	webhookHandler := handler.NewWebhookHandler(verifier, stockSyncService)
	stockHandler := handler.NewStockHandler(stockSyncService)
	mappingHandler := handler.NewMappingHandler(mappingService, matchingService)
	storeHandler := handler.NewStoreHandler(storeService, catalogSyncService, syncQueue)
	webhookLogHandler := handler.NewWebhookLogHandler(webhookLogService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies configuration", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(providers.Meter(cfg.Telemetry.ServiceName)),
	)

	engine.GET("/health", healthHandler(db))

	// Public webhook endpoint: authenticated by signature, not by JWT
	webhookRoutes := []gin.HandlerFunc{middleware.BodyLimit(cfg.Sync.MaxWebhookBodySize)}
	if cfg.HTTP.WebhookRatePerSecond > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.WebhookRatePerSecond, cfg.HTTP.WebhookRateBurst)
		stopSweep := make(chan struct{})
		defer close(stopSweep)
		go limiter.Run(time.Minute, stopSweep)
		webhookRoutes = append(webhookRoutes, middleware.RateLimit(limiter))
	}
	engine.POST("/webhook/stock-sync", append(webhookRoutes, webhookHandler.StockSync)...)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	if cfg.JWT.Secret != "" {
		r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: auth.NewJWTService(cfg.JWT),
			Logger:     log,
		}))
	} else {
		log.Warn("JWT secret not configured, dashboard API trusts the X-Company-ID header")
	}
	r.Use(
		middleware.RequireCompany(),
		middleware.TracingAttributeInjector(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	r.Register(router.ProductRoutes(stockHandler)).
		Register(router.MappingRoutes(mappingHandler)).
		Register(router.StoreRoutes(storeHandler, webhookLogHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// runMigrations applies the embedded schema over a dedicated connection,
// since closing the migrator also closes its *sql.DB.
func runMigrations(cfg *config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
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
