package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in db.statement, dev only
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

const queryStartKey = "otel:query_start"

// RegisterDBTracing installs otelgorm on db and annotates each query span with
// table, rows affected, errors and slow query events.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }
	after := func(tx *gorm.DB) { annotateQuerySpan(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	registrations := []struct {
		name string
		fn   func() error
	}{
		{"create", func() error {
			if err := cb.Create().Before("gorm:create").Register("settlement:before_create", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("settlement:after_create", after)
		}},
		{"query", func() error {
			if err := cb.Query().Before("gorm:query").Register("settlement:before_query", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("settlement:after_query", after)
		}},
		{"update", func() error {
			if err := cb.Update().Before("gorm:update").Register("settlement:before_update", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("settlement:after_update", after)
		}},
		{"delete", func() error {
			if err := cb.Delete().Before("gorm:delete").Register("settlement:before_delete", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("settlement:after_delete", after)
		}},
	}
	for _, r := range registrations {
		if err := r.fn(); err != nil {
			logger.Error("Failed to register db tracing callback", zap.String("operation", r.name), zap.Error(err))
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateQuerySpan(tx *gorm.DB, slowThreshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}

	if v, ok := tx.InstanceGet(queryStartKey); ok {
		if start, ok := v.(time.Time); ok && slowThreshold > 0 {
			if elapsed := time.Since(start); elapsed > slowThreshold {
				span.SetAttributes(attribute.Bool("db.slow_query", true))
				span.AddEvent("slow_query_warning", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds()),
					attribute.Int64("threshold_ms", slowThreshold.Milliseconds()),
				))
			}
		}
	}
}
