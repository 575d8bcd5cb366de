package main

import (
	"context"
	"fmt"
	"os"

	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/migration"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/persistence"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/storage"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/migrations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// telemetryStack holds the OpenTelemetry providers and the profiler. Every
// provider is non-nil; disabled ones are no-ops.
type telemetryStack struct {
	tracerProvider *telemetry.TracerProvider
	meterProvider  *telemetry.MeterProvider
	loggerProvider *telemetry.LoggerProvider
	profiler       *telemetry.Profiler
	bridgedLogger  *zap.Logger
}

// setupTelemetry starts profiling, tracing, metrics and log export. A
// provider that fails to start is replaced by its disabled form so the
// server still comes up.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) *telemetryStack {
	t := &telemetryStack{}
	tc := cfg.Telemetry
	collector := telemetry.Collector{
		Endpoint:    tc.CollectorEndpoint,
		Insecure:    tc.Insecure,
		ServiceName: tc.ServiceName,
	}

	pc := cfg.Profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           pc.Enabled,
		ServerAddress:     pc.ServerAddress,
		ApplicationName:   pc.ApplicationName,
		BasicAuthUser:     pc.BasicAuthUser,
		BasicAuthPassword: pc.BasicAuthPassword,
		Tags:              map[string]string{"env": cfg.App.Env},
	}, log)
	if err != nil {
		log.Warn("Profiling unavailable", zap.Error(err))
		profiler, _ = telemetry.NewProfiler(telemetry.ProfilerConfig{}, log)
	}
	t.profiler = profiler

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:       tc.Enabled,
		Collector:     collector,
		SamplingRatio: tc.SamplingRatio,
		SpanProfiles:  pc.SpanProfiles && profiler.IsEnabled(),
	}, log)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
		tp, _ = telemetry.NewTracerProvider(ctx, telemetry.Config{}, log)
	}
	t.tracerProvider = tp

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:        tc.Enabled && tc.MetricsEnabled,
		Collector:      collector,
		ExportInterval: tc.MetricsInterval,
	}, log)
	if err != nil {
		log.Warn("Metrics unavailable", zap.Error(err))
		mp, _ = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{}, log)
	}
	t.meterProvider = mp

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:   tc.Enabled && tc.LogsEnabled,
		Collector: collector,
	}, log)
	if err != nil {
		log.Warn("Log export unavailable", zap.Error(err))
		lp, _ = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{}, log)
	}
	t.loggerProvider = lp

	if lp.IsEnabled() {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		t.bridgedLogger = lp.Bridge(log, tc.ServiceName, level)
	}

	return t
}

// shutdown flushes and stops every provider
func (t *telemetryStack) shutdown(ctx context.Context, log *zap.Logger) {
	if err := t.profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := t.loggerProvider.Shutdown(ctx); err != nil {
		// The bridged logger writes through this provider; report on stderr.
		fmt.Fprintf(os.Stderr, "failed to shut down logger provider: %v\n", err)
	}
}

// migrateSchema runs the embedded migrations on PostgreSQL and AutoMigrate
// on SQLite
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("auto-migrate sqlite schema: %w", err)
		}
		return nil
	}

	pool, err := db.Pool()
	if err != nil {
		return err
	}
	m, err := migration.New(pool, migrations.FS, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the pool the server keeps using.
	return m.Up()
}

// newUploadArchive returns the S3 archive when storage is enabled and an
// in-memory archive otherwise
func newUploadArchive(cfg *config.Config, log *zap.Logger) (catalogapp.UploadArchive, error) {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, archiving uploads in memory")
		return storage.NewMemoryUploadArchive(cfg.Storage.KeyPrefix), nil
	}
	archive, err := storage.NewS3UploadArchive(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		return nil, err
	}
	log.Info("Archiving uploads to object storage",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("endpoint", cfg.Storage.Endpoint),
	)
	return archive, nil
}
