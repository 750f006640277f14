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
	"go.uber.org/zap"

	eventapp "github.com/backoffice/backend/internal/application/event"
	inventoryapp "github.com/backoffice/backend/internal/application/inventory"
	procurementapp "github.com/backoffice/backend/internal/application/procurement"
	"github.com/backoffice/backend/internal/infrastructure/bookkeeping"
	"github.com/backoffice/backend/internal/infrastructure/cache"
	"github.com/backoffice/backend/internal/infrastructure/config"
	"github.com/backoffice/backend/internal/infrastructure/event"
	"github.com/backoffice/backend/internal/infrastructure/logger"
	"github.com/backoffice/backend/internal/infrastructure/marketplace"
	"github.com/backoffice/backend/internal/infrastructure/persistence"
	"github.com/backoffice/backend/internal/infrastructure/scheduler"
	"github.com/backoffice/backend/internal/infrastructure/telemetry"
	"github.com/backoffice/backend/internal/interfaces/http/handler"
	"github.com/backoffice/backend/internal/interfaces/http/middleware"
	"github.com/backoffice/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("starting inventory ledger service",
		zap.String("name", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tel, err := setupTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer tel.shutdown(log)

	// Tee application logs into the collector alongside stdout.
	log = telemetry.AttachOTELCore(log, tel.logs, cfg.Telemetry.ServiceName,
		logger.MapZapLevel(cfg.Log.Level))

	db, err := connectDatabase(cfg, tel, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("database connected", zap.String("driver", cfg.Database.Driver))

	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("failed to create idempotency store", zap.Error(err))
	}
	defer idempotencyStore.Close()

	// Transactional outbox: repositories persist domain events in the same
	// transaction as the aggregate, and a background processor relays them
	// to the in-process bus.
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Repositories and transaction scopes.
	itemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	itemRepo.SetOutboxEventSaver(outboxPublisher)
	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	orderRepo.SetOutboxEventSaver(outboxPublisher)
	invScope := persistence.NewGormTransactionScope(db.DB)
	invScope.SetOutboxEventSaver(outboxPublisher)
	procScope := persistence.NewGormProcurementTransactionScope(db.DB)
	procScope.SetOutboxEventSaver(outboxPublisher)

	// Bookkeeping gateway with bounded retry; failures land on the
	// reconciliation queue instead of blocking stock movements.
	gateway := bookkeeping.NewHTTPGateway(cfg.Bookkeeping)
	booker := inventoryapp.NewEntryBooker(gateway, idempotencyStore, log)
	if cfg.Bookkeeping.MaxAttempts > 0 {
		booker.SetMaxAttempts(cfg.Bookkeeping.MaxAttempts)
	}
	if cfg.Bookkeeping.RetryDelay > 0 {
		booker.SetRetryDelay(cfg.Bookkeeping.RetryDelay)
	}

	// Application services.
	itemService := inventoryapp.NewItemService(itemRepo, orderRepo)
	ledgerService := inventoryapp.NewLedgerService(invScope)
	replenishmentService := inventoryapp.NewReplenishmentService(invScope, ledgerService, booker)
	orderService := procurementapp.NewPurchaseOrderService(procScope, ledgerService, booker)

	eventBus := event.NewInMemoryEventBus(log)
	itemService.SetEventPublisher(eventBus)
	ledgerService.SetEventPublisher(eventBus)
	orderService.SetEventPublisher(eventBus)

	// Stock alerts consume state-change events off the bus; the idempotent
	// wrapper guards against redelivery from the outbox processor.
	eventBus.Subscribe(event.NewIdempotentHandler(
		inventoryapp.NewStockAlertHandler(log), idempotencyStore, log,
	))

	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer,
		event.DefaultOutboxProcessorConfig(), log)
	if err := outboxProcessor.Start(ctx); err != nil {
		log.Fatal("failed to start outbox processor", zap.Error(err))
	}

	sweeper := scheduler.NewReconciliationSweeper(scheduler.SweeperConfig{
		Interval:  cfg.Bookkeeping.SweepInterval,
		BatchSize: cfg.Bookkeeping.SweepBatchSize,
	}, replenishmentService, log)
	if cfg.Bookkeeping.SweepInterval > 0 {
		if err := sweeper.Start(ctx); err != nil {
			log.Fatal("failed to start reconciliation sweeper", zap.Error(err))
		}
	}

	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	marketplaceClient := marketplace.NewClient(cfg.Marketplace)

	handlers := router.Handlers{
		Items:          handler.NewItemHandler(itemService),
		Ledger:         handler.NewLedgerHandler(ledgerService),
		Replenishments: handler.NewReplenishmentHandler(replenishmentService),
		Orders:         handler.NewPurchaseOrderHandler(orderService),
		Marketplace:    handler.NewMarketplaceHandler(marketplaceClient),
		System:         handler.NewSystemHandler(),
		Outbox:         handler.NewOutboxHandler(outboxService),
	}

	engine := buildEngine(cfg, tel, db, log)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAll(r, handlers)
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
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	if err := sweeper.Stop(shutdownCtx); err != nil {
		log.Error("reconciliation sweeper shutdown failed", zap.Error(err))
	}
	if err := outboxProcessor.Stop(shutdownCtx); err != nil {
		log.Error("outbox processor shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// telemetryStack bundles the observability providers so shutdown can flush
// them in one place.
type telemetryStack struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryStack, error) {
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}

	meter, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("logger provider: %w", err)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingURL,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileInuseSpace: true,
		ProfileGoroutines: true,
		ProfileMutexCount: true,
		ProfileBlockCount: true,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("profiler: %w", err)
	}

	// Span profiles need both the tracer and the profiler running.
	if cfg.Telemetry.Enabled && cfg.Telemetry.ProfilingEnabled {
		if err := tracer.EnableSpanProfiles(); err != nil {
			log.Warn("span profiles unavailable", zap.Error(err))
		}
	}

	return &telemetryStack{tracer: tracer, meter: meter, logs: logs, profiler: profiler}, nil
}

func (t *telemetryStack) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.profiler.Stop(); err != nil {
		log.Error("profiler stop failed", zap.Error(err))
	}
	if err := t.logs.Shutdown(ctx); err != nil {
		log.Error("logger provider shutdown failed", zap.Error(err))
	}
	if err := t.meter.Shutdown(ctx); err != nil {
		log.Error("meter provider shutdown failed", zap.Error(err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		log.Error("tracer provider shutdown failed", zap.Error(err))
	}
}

func connectDatabase(cfg *config.Config, tel *telemetryStack, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         cfg.Database.Driver,
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			return nil, fmt.Errorf("db tracing plugin: %w", err)
		}
	}

	if cfg.Telemetry.Enabled {
		if _, err := telemetry.RegisterDBMetrics(db.DB, tel.meter, telemetry.DefaultDBMetricsConfig(), log); err != nil {
			log.Warn("db metrics unavailable", zap.Error(err))
		}
	}

	return db, nil
}

func buildEngine(cfg *config.Config, tel *telemetryStack, db *persistence.Database, log *zap.Logger) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("invalid trusted proxies configuration", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitRPM > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPM, time.Minute)
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanEnrichment())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.meter,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling())
	}

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return engine
}
