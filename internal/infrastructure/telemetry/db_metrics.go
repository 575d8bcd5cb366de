package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

// DBMetricsConfig configures query metrics
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration
}

func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{SlowQueryThreshold: defaultSlowQuery}
}

// DBMetrics is a gorm.Plugin counting statements by operation and slow
// statements by table. Pool usage is observed from sql.DB stats each time
// the meter is collected.
type DBMetrics struct {
	meter       metric.Meter
	queries     *Counter
	slowQueries *Counter
	latency     *Histogram
	slow        time.Duration
	logger      *zap.Logger

	mu   sync.Mutex
	pool metric.Registration
}

func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &DBMetrics{meter: meter, slow: cfg.SlowQueryThreshold, logger: logger}
	if m.slow <= 0 {
		m.slow = defaultSlowQuery
	}

	var errs []error
	var err error
	m.queries, err = NewCounter(meter, "db_query_total", "Statements by operation", "{query}")
	errs = append(errs, err)
	m.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Statements over the slow threshold by table", "{query}")
	errs = append(errs, err)
	m.latency, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "flowsales:db_metrics"
}

// Initialize implements gorm.Plugin
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := m.observePool(sqlDB); err != nil {
		return err
	}
	return registerAround(db, "flowsales_metrics", markQueryStart, func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			elapsed, _ := queryElapsed(tx)
			m.RecordQuery(ctx, statementOperation(tx, op), tx.Statement.Table, elapsed)
		}
	}, false)
}

func (m *DBMetrics) observePool(sqlDB *sql.DB) error {
	conns, err := m.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pool connections by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConns, err := m.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	reg, err := m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, conns, maxConns)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.pool = reg
	m.mu.Unlock()
	return nil
}

// RecordQuery records one finished statement. An empty table counts as
// "unknown".
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, elapsed time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	op := AttrDBOperation.String(operation)
	m.queries.Inc(ctx, op)
	m.latency.RecordDuration(ctx, elapsed, op)
	if elapsed <= m.slow {
		return
	}
	if table == "" {
		table = "unknown"
	}
	m.slowQueries.Inc(ctx, AttrDBTable.String(table))
}

// Stop detaches the pool observer. It is safe to call more than once.
func (m *DBMetrics) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pool == nil {
		return
	}
	if err := m.pool.Unregister(); err != nil {
		m.logger.Warn("Failed to detach pool metrics", zap.Error(err))
	}
	m.pool = nil
}

// RegisterDBMetrics attaches the plugin to db. It returns nil without error
// when metrics are disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !mp.IsEnabled() {
		return nil, nil
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		return nil, err
	}
	m.logger.Info("Database metrics enabled", zap.Duration("slow_query_threshold", m.slow))
	return m, nil
}
