package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
}

// DefaultDBMetricsConfig returns default configuration for database metrics.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

// Database attribute keys
var (
	AttrDBState     = attribute.Key("state")
	AttrDBOperation = attribute.Key("db_operation")
	AttrDBTable     = attribute.Key("db_table")
)

// DBDurationBuckets are bucket boundaries for query latencies (seconds).
var DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

const metricsStartKey = "metrics:query_start"

// DBMetrics records query counts, latencies and slow queries for one GORM instance.
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	slowThreshold  time.Duration
}

// RegisterDBMetrics installs query callbacks on db and exposes connection pool
// gauges read from sql.DB stats at collection time.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled {
		logger.Debug("Database metrics disabled, skipping registration")
		return nil, nil
	}

	m := &DBMetrics{slowThreshold: cfg.SlowQueryThreshold}
	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Total number of database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Total number of slow database queries by table", "{query}"); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Number of connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	maxConnections, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(maxConnections, int64(stats.MaxOpenConnections))
		return nil
	}, connections, maxConnections); err != nil {
		return nil, err
	}

	if err := m.registerCallbacks(db); err != nil {
		return nil, err
	}

	logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold))
	return m, nil
}

func (m *DBMetrics) registerCallbacks(db *gorm.DB) error {
	before := func(tx *gorm.DB) { tx.InstanceSet(metricsStartKey, time.Now()) }
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) { m.observe(tx, operation) }
	}

	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("metrics:before_create", before) },
		func() error {
			return cb.Create().After("gorm:create").Register("metrics:after_create", after("INSERT"))
		},
		func() error { return cb.Query().Before("gorm:query").Register("metrics:before_query", before) },
		func() error { return cb.Query().After("gorm:query").Register("metrics:after_query", after("SELECT")) },
		func() error { return cb.Update().Before("gorm:update").Register("metrics:before_update", before) },
		func() error {
			return cb.Update().After("gorm:update").Register("metrics:after_update", after("UPDATE"))
		},
		func() error { return cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before) },
		func() error {
			return cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("DELETE"))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *DBMetrics) observe(tx *gorm.DB, operation string) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var elapsed time.Duration
	if v, ok := tx.InstanceGet(metricsStartKey); ok {
		if start, ok := v.(time.Time); ok {
			elapsed = time.Since(start)
		}
	}

	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(operation))
	if m.slowThreshold > 0 && elapsed > m.slowThreshold {
		table := tx.Statement.Table
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}
