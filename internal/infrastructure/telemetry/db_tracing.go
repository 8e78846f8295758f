package telemetry

import (
	"context"
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
	LogFullSQL      bool          // include query variables in spans (never in production)
	SlowQueryThresh time.Duration // default 200ms
	DBName          string        // default "postgresql"
}

// DBTracingPlugin registers otelgorm and marks slow statements on its spans
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs otelgorm and the annotation callbacks on db
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// the slow-query check runs before otelgorm ends its span
	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("erp_db:before_create", p.before) },
		func() error { return cb.Query().Before("gorm:query").Register("erp_db:before_query", p.before) },
		func() error { return cb.Update().Before("gorm:update").Register("erp_db:before_update", p.before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("erp_db:before_delete", p.before) },
		func() error { return cb.Row().Before("gorm:row").Register("erp_db:before_row", p.before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("erp_db:before_raw", p.before) },
		func() error {
			return cb.Create().After("gorm:create").Before("otel:after:create").Register("erp_db:after_create", p.after)
		},
		func() error {
			return cb.Query().After("gorm:query").Before("otel:after:select").Register("erp_db:after_query", p.after)
		},
		func() error {
			return cb.Update().After("gorm:update").Before("otel:after:update").Register("erp_db:after_update", p.after)
		},
		func() error {
			return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("erp_db:after_delete", p.after)
		},
		func() error { return cb.Row().After("gorm:row").Before("otel:after:row").Register("erp_db:after_row", p.after) },
		func() error { return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("erp_db:after_raw", p.after) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh))
	return nil
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= p.config.SlowQueryThresh {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
	p.logger.Warn("slow query",
		zap.String("table", db.Statement.Table),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", db.Statement.RowsAffected))
}
