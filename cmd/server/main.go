package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appalloc "github.com/erp/settlement/internal/application/allocation"
	"github.com/erp/settlement/internal/infrastructure/auth"
	"github.com/erp/settlement/internal/infrastructure/cache"
	"github.com/erp/settlement/internal/infrastructure/config"
	"github.com/erp/settlement/internal/infrastructure/logger"
	"github.com/erp/settlement/internal/infrastructure/migration"
	"github.com/erp/settlement/internal/infrastructure/persistence"
	"github.com/erp/settlement/internal/infrastructure/telemetry"
	"github.com/erp/settlement/internal/interfaces/http/handler"
	"github.com/erp/settlement/internal/interfaces/http/middleware"
	"github.com/erp/settlement/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

// observability bundles the telemetry providers so they can be flushed together on exit
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

//	@title			Settlement API
//	@version		1.0
//	@description	Allocates customer payments, vendor payments and vendor credits across open receivables and payables.

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	obs, err := setupTelemetry(context.Background(), cfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := obs.logs.Bridge(baseLog, zapcore.InfoLevel)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting settlement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.Migration.AutoMigrate {
		if err := runMigrations(cfg, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	meter := obs.meter.Meter("settlement")
	dbMetrics := telemetry.DefaultDBMetricsConfig()
	dbMetrics.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled
	if _, err := telemetry.RegisterDBMetrics(db.DB, meter, dbMetrics, log); err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	recordRepo := persistence.NewGormAllocationRecordRepository(db.DB)

	sessionStore, err := cache.NewSessionStoreFactory(cfg.Redis, cfg.Session, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			log.Error("Error closing session store", zap.Error(err))
		}
	}()

	allocationMetrics, err := telemetry.NewAllocationMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register allocation metrics", zap.Error(err))
	}

	allocationService := appalloc.NewService(documentRepo, recordRepo, sessionStore,
		appalloc.WithLogger(log),
		appalloc.WithMetrics(allocationMetrics),
		appalloc.WithSessionTTL(cfg.Session.TTL),
	)

	middleware.SetupValidator()

	engineCfg := router.EngineConfig{
		Logger:              log,
		Meter:               meter,
		ServiceName:         cfg.Telemetry.ServiceName,
		TracingEnabled:      cfg.Telemetry.Enabled,
		MaxBodySize:         cfg.HTTP.MaxBodySize,
		TenantHeaderEnabled: !cfg.JWT.Enabled,
		TrustedProxies:      cfg.HTTP.TrustedProxies,
	}
	if cfg.JWT.Enabled {
		engineCfg.TokenValidator = auth.NewTokenValidator(cfg.JWT)
	} else {
		log.Warn("JWT authentication disabled, tenant is read from the X-Tenant-ID header")
	}
	engine, err := router.NewEngine(engineCfg)
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	handler.NewHealthHandler(cfg.App.Name, version,
		handler.HealthCheck{Name: "database", Check: func(context.Context) error { return db.Ping() }},
		handler.HealthCheck{Name: "session_store", Check: sessionStore.Ping},
	).RegisterRoutes(engine)

	// Swagger documentation endpoint
	router.RegisterDocs(engine)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewAllocationHandler(allocationService))
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
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	obs.shutdown(ctx, log)

	log.Info("Server exited gracefully")
}

// setupTelemetry starts tracing, metrics, log export and profiling as configured
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*observability, error) {
	t := cfg.Telemetry
	obs := &observability{}

	var err error
	obs.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	obs.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled && t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsInterval,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	obs.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	obs.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         t.ProfilingEnabled,
		ServerAddress:   t.ProfilerAddress,
		ApplicationName: t.ServiceName,
	}, log)
	if err != nil {
		return nil, err
	}
	if obs.profiler.IsRunning() && obs.tracer.IsEnabled() {
		obs.tracer.EnableSpanProfiles()
	}
	return obs, nil
}

// shutdown flushes every provider; failures are logged and do not stop the others
func (o *observability) shutdown(ctx context.Context, log *zap.Logger) {
	if err := o.profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := o.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := o.meter.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := o.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}

func runMigrations(cfg *config.Config, log *zap.Logger) error {
	m, err := migration.Open(cfg.Database.DSN(), cfg.Migration.Path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()
	return m.Up()
}
