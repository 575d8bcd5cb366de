package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	proposalapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/proposal"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/cache"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/event"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/narrative"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/persistence"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/printing"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/rules"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/handler"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/middleware"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			FlowSales Co-Pilot API
//	@version		1.0
//	@description	Catalog verification, approval and proposal assembly for the sales co-pilot

//	@contact.name	API Support
//	@contact.url	https://github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel := setupTelemetry(ctx, cfg, log)
	if tel.bridgedLogger != nil {
		log = tel.bridgedLogger
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting FlowSales Co-Pilot",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := openDatabase(cfg, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()
	dbMetrics := instrumentDatabase(cfg, db, tel.meterProvider, log)

	entryRepo := persistence.NewRetryingCatalogEntryRepository(
		persistence.NewGormCatalogEntryRepository(db.DB), log)
	batchRepo := persistence.NewGormUploadBatchRepository(db.DB)
	proposalRepo := persistence.NewGormProposalRepository(db.DB)

	// Staging store for verified batches awaiting commit
	stagingStore, err := cache.NewStagingStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithBackend(cfg.Staging.Backend),
		cache.WithInMemoryFallback(cfg.Staging.AllowFallback),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create staging store", zap.Error(err))
	}

	archive, err := newUploadArchive(cfg, log)
	if err != nil {
		log.Fatal("Failed to create upload archive", zap.Error(err))
	}

	ruleProvider, err := rules.NewProvider(cfg.Rules.Path, log)
	if err != nil {
		log.Fatal("Failed to load verification rules", zap.Error(err), zap.String("path", cfg.Rules.Path))
	}

	// Domain events, forwarded to NATS when configured
	eventBus := event.NewBus(log)
	eventBus.Subscribe(event.AuditLog(log.Named("events")))
	if cfg.Events.Enabled {
		conn, err := event.ConnectNATS(cfg.Events, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer func() {
			if err := conn.Drain(); err != nil {
				log.Warn("NATS connection did not drain", zap.Error(err))
			}
		}()
		eventBus.AddForwarder(event.NewNATSForwarder(conn, cfg.Events.SubjectPrefix, log))
	}

	pipelineMetrics, err := telemetry.NewPipelineMetrics(telemetry.PipelineMetricsConfig{
		Meter:           tel.meterProvider.Meter("flowsales-copilot/pipeline"),
		Logger:          log,
		BacklogProvider: telemetry.NewGormBacklogProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create pipeline metrics", zap.Error(err))
	}
	if tel.meterProvider.IsEnabled() {
		pipelineMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
	}

	// Application services
	importService := catalogapp.NewImportService(entryRepo, batchRepo, stagingStore, ruleProvider,
		catalogapp.WithArchive(archive),
		catalogapp.WithEventPublisher(eventBus),
		catalogapp.WithMetrics(pipelineMetrics),
		catalogapp.WithLogger(log),
		catalogapp.WithStagingTTL(cfg.Staging.TTL),
	)
	approvalService := catalogapp.NewApprovalService(entryRepo, eventBus, pipelineMetrics, log)
	rulesService := catalogapp.NewRulesService(ruleProvider, log)

	proposalOpts := []proposalapp.Option{
		proposalapp.WithNarrative(narrative.NewGenerator(cfg.Narrative, log)),
		proposalapp.WithEventPublisher(eventBus),
		proposalapp.WithMetrics(pipelineMetrics),
		proposalapp.WithLogger(log),
	}
	var printer *printing.ProposalPrinter
	if cfg.Printing.Enabled {
		engine, err := printing.NewTemplateEngine()
		if err != nil {
			log.Fatal("Failed to load proposal templates", zap.Error(err))
		}
		printer = printing.NewProposalPrinter(engine, printing.NewChromedpRenderer(cfg.Printing, log), log)
		proposalOpts = append(proposalOpts, proposalapp.WithPrinter(printer))
	}
	proposalService := proposalapp.NewProposalService(entryRepo, proposalRepo, proposalOpts...)

	// HTTP handlers
	maxUpload := cfg.HTTP.MaxUploadSize
	systemHandler := handler.NewSystemHandler().
		AddCheck("database", db.Ping)
	if redisStore, ok := stagingStore.(*cache.RedisStagingStore); ok {
		systemHandler.AddCheck("staging", func(ctx context.Context) error {
			return redisStore.GetClient().Ping(ctx).Err()
		})
	}

	engine, limiter := newEngine(cfg, tel, log)
	if limiter != nil {
		defer limiter.Stop()
	}

	engine.GET("/health", systemHandler.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	router.Mount(engine, "v1",
		router.NewCatalogRoutes(router.CatalogHandlers{
			Uploads: handler.NewCatalogUploadHandler(importService, approvalService, maxUpload),
			Entries: handler.NewCatalogEntryHandler(approvalService),
			Rules:   handler.NewCatalogRulesHandler(rulesService),
		}),
		router.NewProposalRoutes(handler.NewProposalHandler(proposalService)),
		router.NewSystemRoutes(systemHandler),
	)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	pipelineMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if printer != nil {
		if err := printer.Close(); err != nil {
			log.Warn("Failed to close PDF renderer", zap.Error(err))
		}
	}
	if closer, ok := stagingStore.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn("Failed to close staging store", zap.Error(err))
		}
	}
	tel.shutdown(shutdownCtx, log)

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine and its global middleware chain. The
// returned limiter is nil when rate limiting is disabled.
func newEngine(cfg *config.Config, tel *telemetryStack, log *zap.Logger) (*gin.Engine, *middleware.RateLimiter) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanDecorator(),
		logger.Middleware(log),
		middleware.HTTPMetrics(tel.meterProvider),
		middleware.Profiling(profilingConfig(cfg.Profiling.Enabled)),
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORS(corsConfig(cfg.HTTP)),
		middleware.BodyLimit(max(cfg.HTTP.MaxBodySize, cfg.HTTP.MaxUploadSize)),
	)

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))

	return engine, limiter
}

func profilingConfig(enabled bool) middleware.ProfilingConfig {
	pc := middleware.DefaultProfilingConfig()
	pc.Enabled = enabled
	return pc
}

func corsConfig(httpCfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = httpCfg.CORSAllowOrigins
	if len(httpCfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = httpCfg.CORSAllowMethods
	}
	if len(httpCfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = httpCfg.CORSAllowHeaders
	}
	return cors
}

// openDatabase connects and brings the schema up to date. PostgreSQL runs
// the embedded SQL migrations; SQLite uses AutoMigrate.
func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.DBName),
	)

	if err := migrateSchema(cfg, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// instrumentDatabase registers the GORM tracing and metrics plugins. It
// returns nil when database metrics are off.
func instrumentDatabase(cfg *config.Config, db *persistence.Database, mp *telemetry.MeterProvider, log *zap.Logger) *telemetry.DBMetrics {
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		if cfg.Database.Driver == config.DriverSQLite {
			tracingCfg.DBSystem = "sqlite"
		}
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		if err := telemetry.RegisterDBTracing(db.DB, tracingCfg, log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	if !mp.IsEnabled() {
		return nil
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, mp, telemetry.DBMetricsConfig{
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
		return nil
	}
	return dbMetrics
}
