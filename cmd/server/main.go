package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appreconciliation "github.com/pharmaops/backend/internal/application/reconciliation"
	appsettings "github.com/pharmaops/backend/internal/application/settings"
	domainsettings "github.com/pharmaops/backend/internal/domain/settings"
	"github.com/pharmaops/backend/internal/infrastructure/auth"
	"github.com/pharmaops/backend/internal/infrastructure/cache"
	"github.com/pharmaops/backend/internal/infrastructure/config"
	"github.com/pharmaops/backend/internal/infrastructure/event"
	"github.com/pharmaops/backend/internal/infrastructure/logger"
	"github.com/pharmaops/backend/internal/infrastructure/persistence"
	"github.com/pharmaops/backend/internal/infrastructure/scheduler"
	"github.com/pharmaops/backend/internal/infrastructure/telemetry"
	"github.com/pharmaops/backend/internal/interfaces/http/handler"
	"github.com/pharmaops/backend/internal/interfaces/http/middleware"
	"github.com/pharmaops/backend/internal/interfaces/http/router"
)

//	@title			PharmaOps Backend API
//	@version		1.0
//	@description	Multi-tenant pharmacy platform backend: pickup-code transaction
//	@description	holds, expiry reconciliation, and per-pharmacy data scoping.

//	@contact.name	API Support
//	@contact.url	https://github.com/pharmaops/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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

	log.Info("Starting PharmaOps Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize metrics
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.App.Name,
		BasicAuthUser:     cfg.Profiling.AuthUser,
		BasicAuthPassword: cfg.Profiling.AuthPassword,
		CPU:               cfg.Profiling.ProfileCPU,
		Memory:            cfg.Profiling.ProfileMemory,
		Goroutines:        cfg.Profiling.ProfileGoroutines,
		Sync:              cfg.Profiling.ProfileSync,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Link CPU profiles to trace spans when both systems are running
	if profiler.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Connection pool metrics
	if meterProvider.IsEnabled() {
		poolMetrics, err := persistence.NewPoolMetrics(db, meterProvider.Meter("db.pool"), 15*time.Second, log)
		if err != nil {
			log.Warn("Failed to register pool metrics", zap.Error(err))
		} else {
			poolMetrics.Start(context.Background())
			defer poolMetrics.Stop()
		}
	}

	// Database query tracing
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTraceCfg := telemetry.DefaultDBTracingConfig()
		dbTraceCfg.Enabled = true
		dbTracing := telemetry.NewDBTracingPlugin(dbTraceCfg, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	pendingTxRepo := persistence.NewGormPendingTransactionRepository(db.DB)
	inventoryItemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	runRecordRepo := persistence.NewGormRunRecordRepository(db.DB)
	pharmacySettingsRepo := persistence.NewGormPharmacySettingsRepository(db.DB)

	// Settings cache: in-process by default, Redis when instances must share
	var settingsCache domainsettings.Cache
	switch cfg.SettingsCache.Backend {
	case "redis":
		settingsCache, err = cache.NewRedisSettingsCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
			cache.WithRedisCacheConfig(domainsettings.CacheConfig{TTL: cfg.SettingsCache.TTL}),
			cache.WithRedisCacheLogger(log),
		)
		if err != nil {
			log.Fatal("Failed to connect to Redis settings cache", zap.Error(err))
		}
	default:
		settingsCache = cache.NewInMemorySettingsCache(
			cache.WithInMemoryConfig(domainsettings.CacheConfig{TTL: cfg.SettingsCache.TTL}),
			cache.WithInMemoryLogger(log),
		)
	}
	defer func() {
		if err := settingsCache.Close(); err != nil {
			log.Error("Error closing settings cache", zap.Error(err))
		}
	}()

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	settingsService := appsettings.NewService(pharmacySettingsRepo, settingsCache, log)
	cleanupService := appreconciliation.NewCleanupService(
		pendingTxRepo, inventoryItemRepo, runRecordRepo, settingsService, eventBus, log,
	)
	statsService := appreconciliation.NewStatsService(
		pendingTxRepo, runRecordRepo, settingsService, log,
	)

	// JWT auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// Background reconciliation sweep
	var sweepMetrics *scheduler.SweepMetrics
	if meterProvider.IsEnabled() {
		sweepMetrics, err = scheduler.NewSweepMetrics(meterProvider.Meter("reconciliation"))
		if err != nil {
			log.Warn("Failed to register sweep metrics", zap.Error(err))
		}
	}
	reconciliationScheduler := scheduler.NewReconciliationScheduler(
		cleanupService,
		log,
		scheduler.ReconciliationSchedulerConfig{
			Enabled:       cfg.Reconciliation.Enabled,
			CheckInterval: cfg.Reconciliation.CheckInterval,
			RunTimeout:    cfg.Reconciliation.RunTimeout,
			Metrics:       sweepMetrics,
		},
	)
	if err := reconciliationScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
	}
	defer func() {
		if err := reconciliationScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping reconciliation scheduler", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	reconciliationHandler := handler.NewReconciliationHandler(cleanupService, statsService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check before auth so probes need no token
	engine.GET("/health", healthHandler(db, log))

	// Authenticated API surface
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.Logger = log
	if cfg.SettingsCache.Backend == "redis" {
		// Revocation needs shared state once more than one instance runs
		blacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis token blacklist", zap.Error(err))
		}
		defer func() {
			if err := blacklist.Close(); err != nil {
				log.Error("Error closing token blacklist", zap.Error(err))
			}
		}()
		jwtConfig.TokenBlacklist = blacklist
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	if cfg.Telemetry.Enabled {
		// Re-annotate spans now that JWT claims are available
		engine.Use(middleware.TracingAttributeInjector())
	}

	// Profiling labels come after auth so pharmacy_id is available
	if profiler.IsEnabled() {
		engine.Use(middleware.Profiling())
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(reconciliationHandler)
	r.Register(settingsHandler)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

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
