package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appdynamic "github.com/heraerp/platform/internal/application/dynamicdata"
	appentity "github.com/heraerp/platform/internal/application/entity"
	appidentity "github.com/heraerp/platform/internal/application/identity"
	appledger "github.com/heraerp/platform/internal/application/ledger"
	apporg "github.com/heraerp/platform/internal/application/organization"
	"github.com/heraerp/platform/internal/application/procedure"
	apprel "github.com/heraerp/platform/internal/application/relationship"
	"github.com/heraerp/platform/internal/domain/entity"
	"github.com/heraerp/platform/internal/domain/ledger"
	"github.com/heraerp/platform/internal/domain/relationship"
	"github.com/heraerp/platform/internal/infrastructure/auth"
	"github.com/heraerp/platform/internal/infrastructure/cache"
	"github.com/heraerp/platform/internal/infrastructure/config"
	"github.com/heraerp/platform/internal/infrastructure/event"
	"github.com/heraerp/platform/internal/infrastructure/logger"
	"github.com/heraerp/platform/internal/infrastructure/persistence"
	"github.com/heraerp/platform/internal/infrastructure/telemetry"
	"github.com/heraerp/platform/internal/interfaces/http/handler"
	"github.com/heraerp/platform/internal/interfaces/http/middleware"
	"github.com/heraerp/platform/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry: traces, metrics, log export and continuous profiling
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
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
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiling.SpanProfiles && profiler.IsEnabled() && tracerProvider.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting HERA platform",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Telemetry.Enabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Repositories
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	entityRepo := persistence.NewGormEntityRepository(db.DB)
	fieldRepo := persistence.NewGormDynamicDataRepository(db.DB)
	relRepo := persistence.NewGormRelationshipRepository(db.DB)
	txnRepo := persistence.NewGormTransactionRepository(db.DB)
	refCounter := persistence.NewGormReferenceCounter(db.DB)
	unitOfWork := persistence.NewGormUnitOfWork(db.DB)

	// Domain events are logged as the audit trail
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	procedureMetrics, err := telemetry.NewProcedureMetrics(meterProvider)
	if err != nil {
		log.Fatal("Failed to create procedure metrics", zap.Error(err))
	}
	runtime := procedure.NewRuntime(unitOfWork, log,
		procedure.WithEventPublisher(eventBus),
		procedure.WithMetrics(procedureMetrics),
	)

	// Transaction dedup keys and request limits share one Redis connection
	redisBackend := cache.NewBackend(cfg.Redis,
		cache.WithLogger(log),
		cache.RequireRedis(cfg.App.Env == "production"),
	)
	defer func() {
		_ = redisBackend.Close()
	}()
	idempotencyStore, err := redisBackend.IdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	var rateLimiter middleware.RateLimiter
	if cfg.HTTP.RateLimit > 0 {
		rateLimiter = redisBackend.RateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
	}

	// Application services
	platformOrgID := cfg.Platform.OrganizationID
	identityRule := relationship.IdentityEdgeRule{
		PlatformOrganizationID: platformOrgID,
		UserEntityType:         entity.TypeUser,
	}
	organizationService := apporg.NewService(orgRepo, entityRepo, runtime, platformOrgID)
	entityService := appentity.NewService(entityRepo, fieldRepo, relRepo, refCounter, organizationService, runtime, appentity.Config{
		DeletePolicy: entity.DeletePolicy{
			Mode:       entity.DeleteMode(cfg.Platform.EntityDeleteMode),
			AllowForce: cfg.Platform.AllowForceDelete,
		},
		PlatformOrganizationID: platformOrgID,
	})
	dynamicDataService := appdynamic.NewService(fieldRepo, entityRepo, nil, organizationService, runtime)
	relationshipService := apprel.NewService(relRepo, entityRepo, organizationService, identityRule, runtime)
	ledgerService := appledger.NewService(txnRepo, entityRepo, organizationService, idempotencyStore, runtime, appledger.Config{
		Reconciliation: reconciliationPolicy(cfg.Ledger),
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
	})
	identityService := appidentity.NewService(entityRepo, fieldRepo, relRepo, orgRepo, organizationService, identityRule, runtime)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.Env == "production"

	engine, err := router.New(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tracerProvider.IsEnabled(),
		Profiling:      profiler.IsEnabled(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           cors,
		Security:       security,
		JWT:            auth.NewJWTService(cfg.JWT),
		Resolver:       identityService,
		RateLimiter:    rateLimiter,
		Meter:          meterProvider,
		Logger:         log,
	}, router.Handlers{
		Health:       handler.NewHealthHandler(sqlDB, version),
		Auth:         handler.NewAuthHandler(identityService),
		Organization: handler.NewOrganizationHandler(organizationService),
		Entity:       handler.NewEntityHandler(entityService),
		DynamicData:  handler.NewDynamicDataHandler(dynamicDataService),
		Relationship: handler.NewRelationshipHandler(relationshipService),
		Transaction:  handler.NewTransactionHandler(ledgerService),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// reconciliationPolicy builds the ledger policy from configuration.
// Config.Load always resolves a default tolerance.
func reconciliationPolicy(cfg config.LedgerConfig) ledger.ReconciliationPolicy {
	policy := ledger.ReconciliationPolicy{
		DefaultTolerance: cfg.DefaultTolerance,
		TypeTolerances:   make(map[string]decimal.Decimal, len(cfg.TypeTolerances)),
		LinelessTypes:    make(map[string]bool, len(cfg.LinelessTypes)),
	}
	for txnType, tolerance := range cfg.TypeTolerances {
		policy.TypeTolerances[txnType] = tolerance
	}
	for _, txnType := range cfg.LinelessTypes {
		policy.LinelessTypes[strings.ToUpper(txnType)] = true
	}
	return policy
}
