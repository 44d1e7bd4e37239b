package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include query variables; development only
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns secure defaults.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus slow-query annotation callbacks.
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

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateSlowQuery(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	errs := []error{
		cb.Create().Before("gorm:create").Register("hera_timing:before_create", before),
		cb.Query().Before("gorm:query").Register("hera_timing:before_query", before),
		cb.Update().Before("gorm:update").Register("hera_timing:before_update", before),
		cb.Delete().Before("gorm:delete").Register("hera_timing:before_delete", before),
		cb.Row().Before("gorm:row").Register("hera_timing:before_row", before),
		cb.Raw().Before("gorm:raw").Register("hera_timing:before_raw", before),
		cb.Create().After("gorm:create").Register("hera_timing:after_create", after),
		cb.Query().After("gorm:query").Register("hera_timing:after_query", after),
		cb.Update().After("gorm:update").Register("hera_timing:after_update", after),
		cb.Delete().After("gorm:delete").Register("hera_timing:after_delete", after),
		cb.Row().After("gorm:row").Register("hera_timing:after_row", after),
		cb.Raw().After("gorm:raw").Register("hera_timing:after_raw", after),
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateSlowQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
