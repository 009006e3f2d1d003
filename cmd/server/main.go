package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	apppartner "github.com/erp/restaurant/internal/application/partner"
	apppos "github.com/erp/restaurant/internal/application/pos"
	"github.com/erp/restaurant/internal/domain/pos"
	"github.com/erp/restaurant/internal/domain/shared"
	"github.com/erp/restaurant/internal/infrastructure/auth"
	"github.com/erp/restaurant/internal/infrastructure/cache"
	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/erp/restaurant/internal/infrastructure/event"
	"github.com/erp/restaurant/internal/infrastructure/logger"
	"github.com/erp/restaurant/internal/infrastructure/persistence"
	"github.com/erp/restaurant/internal/infrastructure/scheduler"
	"github.com/erp/restaurant/internal/infrastructure/telemetry"
	"github.com/erp/restaurant/internal/interfaces/http/handler"
	"github.com/erp/restaurant/internal/interfaces/http/middleware"
	"github.com/erp/restaurant/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

//	@title			Restaurant Settlement API
//	@version		1.0
//	@description	Cashier sessions, order payments and customer credit for the restaurant POS

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting restaurant settlement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	// Database
	dbOpts := []persistence.DatabaseOption{
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		if cfg.Database.Driver == config.DriverSQLite {
			tracingCfg.DBSystem = "sqlite"
		}
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(tracingCfg, log)))
	}

	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// PostgreSQL schemas are owned by cmd/migrate
	if cfg.Database.Driver == config.DriverSQLite {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	location, err := cfg.Settlement.Location()
	if err != nil {
		log.Fatal("Invalid business timezone", zap.String("timezone", cfg.Settlement.BusinessTimezone), zap.Error(err))
	}

	// Idempotency store shared by the HTTP guard and event dedup
	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()
	idempotencyCfg := shared.IdempotencyConfig{TTL: cfg.Settlement.IdempotencyTTL, Enabled: true}

	// Domain events
	serializer := event.NewEventSerializer()
	event.RegisterSettlementEvents(serializer)

	eventBus := event.NewInMemoryEventBus(log)
	audit := event.NewDedupHandler(
		event.NewSettlementAuditHandler(log, serializer),
		store,
		log,
		event.WithDedupConfig(idempotencyCfg),
	)
	eventBus.Subscribe(audit, audit.EventTypes()...)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Warn("Event bus stop failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewSettlementMetrics(meterProvider.Meter("settlement"), log)
	if err != nil {
		log.Fatal("Failed to create settlement metrics", zap.Error(err))
	}

	// Services
	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewTransactionScope(db.DB, cfg.Settlement.Atomic)

	sessionService := apppos.NewSessionService(repos, scope, apppos.SessionServiceConfig{
		Location: location,
		Thresholds: pos.VarianceThresholds{
			Tolerance: cfg.Settlement.VarianceTolerance,
			Critical:  cfg.Settlement.VarianceCritical,
		},
	}, log)
	sessionService.SetEventPublisher(eventBus)
	sessionService.SetMetrics(metrics)

	paymentService := apppos.NewPaymentService(repos, scope, log)
	paymentService.SetEventPublisher(eventBus)
	paymentService.SetMetrics(metrics)

	creditService := apppartner.NewCreditService(repos, scope, log)
	creditService.SetEventPublisher(eventBus)
	creditService.SetMetrics(metrics)

	if !cfg.Settlement.Atomic {
		log.Warn("Settlement writes run without a database transaction")
	}

	sweeper, err := scheduler.NewDriftSweeper(scheduler.DriftSweeperConfig{
		Interval: cfg.Settlement.ReconcileInterval,
		Apply:    cfg.Settlement.ReconcileApply,
	}, sessionService, log)
	if err != nil {
		log.Fatal("Failed to create session drift sweeper", zap.Error(err))
	}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start session drift sweeper", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			log.Warn("Session drift sweeper stop failed", zap.Error(err))
		}
	}()

	// HTTP
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanAnnotator())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
	}))
	engine.Use(middleware.Secure())
	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	system := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version, db)
	engine.GET("/health", system.Health)

	limiterCfg := middleware.DefaultRateLimiterConfig()
	if cfg.HTTP.RateLimitRPS > 0 {
		limiterCfg.RequestsPerSecond = cfg.HTTP.RateLimitRPS
	}
	if cfg.HTTP.RateLimitBurst > 0 {
		limiterCfg.BurstSize = cfg.HTTP.RateLimitBurst
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddleware(auth.NewTokenVerifier(cfg.JWT)),
		middleware.RateLimit(middleware.NewRateLimiter(ctx, limiterCfg)),
	)
	groups := router.SettlementRoutes(router.SettlementHandlers{
		Sessions: handler.NewSessionHandler(sessionService),
		Payments: handler.NewPaymentHandler(paymentService),
		Credit:   handler.NewCustomerCreditHandler(paymentService, creditService),
		System:   system,
	}, middleware.Idempotency(store, idempotencyCfg))
	for _, group := range groups {
		r.Register(group)
	}
	r.Setup()
	log.Info("Routes registered", zap.Strings("routes", r.Routes()))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
		}
	}
	stop()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
