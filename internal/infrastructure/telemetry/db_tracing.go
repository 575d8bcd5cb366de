package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures query spans
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound values in db.statement; development only
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	// DBSystem is reported as db.system, e.g. "postgresql" or "sqlite"
	DBSystem string
}

// DefaultDBTracingConfig returns a disabled config with a 200ms slow query
// threshold
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// RegisterDBTracing adds otelgorm spans to db and marks slow statements on
// them
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	enrich := func(string) func(*gorm.DB) {
		return func(db *gorm.DB) { annotateQuerySpan(db, cfg.SlowQueryThresh) }
	}
	if err := registerAround(db, "flowsales_trace", markQueryStart, enrich, true); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

// annotateQuerySpan marks the span otelgorm opened for the statement when
// the statement ran longer than slowThreshold. otelgorm itself records the
// table, rows affected and errors.
func annotateQuerySpan(db *gorm.DB, slowThreshold time.Duration) {
	if db.Statement.Context == nil || slowThreshold <= 0 {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	elapsed, ok := queryElapsed(db)
	if !ok || elapsed <= slowThreshold {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	span.AddEvent("slow_query", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", slowThreshold.Milliseconds()),
	))
}
