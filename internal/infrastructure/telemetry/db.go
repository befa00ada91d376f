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

// DBTracingConfig controls GORM span instrumentation
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound query variables in span attributes
	LogFullSQL bool
	// SlowQueryThresh marks spans slower than this as slow queries
	SlowQueryThresh time.Duration
	// DBSystem is reported as the database name on spans
	DBSystem string
}

const queryStartKey = "stocksync:query_start"

// RegisterDBTracing installs the otelgorm plugin plus timing callbacks that
// annotate spans with row counts, table names, errors and slow-query events.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// finish callbacks run before otelgorm ends its span ("after:<op>")
	start := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }
	finish := func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("stocksync:start_create", start),
		cb.Query().Before("gorm:query").Register("stocksync:start_query", start),
		cb.Update().Before("gorm:update").Register("stocksync:start_update", start),
		cb.Delete().Before("gorm:delete").Register("stocksync:start_delete", start),
		cb.Row().Before("gorm:row").Register("stocksync:start_row", start),
		cb.Raw().Before("gorm:raw").Register("stocksync:start_raw", start),
		cb.Create().After("gorm:create").Before("after:create").Register("stocksync:finish_create", finish),
		cb.Query().After("gorm:query").Before("after:query").Register("stocksync:finish_query", finish),
		cb.Update().After("gorm:update").Before("after:update").Register("stocksync:finish_update", finish),
		cb.Delete().After("gorm:delete").Before("after:delete").Register("stocksync:finish_delete", finish),
		cb.Row().After("gorm:row").Before("after:row").Register("stocksync:finish_row", finish),
		cb.Raw().After("gorm:raw").Before("after:raw").Register("stocksync:finish_raw", finish),
	)
	if err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
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

	v, ok := tx.InstanceGet(queryStartKey)
	if !ok || slow <= 0 {
		return
	}
	if elapsed := time.Since(v.(time.Time)); elapsed > slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("threshold_ms", slow.Milliseconds()),
		))
	}
}
