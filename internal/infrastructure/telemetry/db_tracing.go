package telemetry

import (
	"context"
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
	LogFullSQL      bool          // include bound variables in db.statement (dev only)
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string
}

// DefaultDBTracingConfig returns tracing disabled with a 200ms slow query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm and a slow-query annotator on a *gorm.DB.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// otelgormAfter prefixes the otelgorm callbacks that end the statement span.
const otelgormAfter = "otel:after:"

// Register installs otelgorm and the timing callbacks. It is a no-op when disabled.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	pairs := []struct {
		op       string
		register func(name string, before bool, fn func(*gorm.DB)) error
	}{
		{"create", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Create().Before("gorm:create").Register(n, fn)
			}
			return cb.Create().After("gorm:create").Before(otelgormAfter+"create").Register(n, fn)
		}},
		{"query", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Query().Before("gorm:query").Register(n, fn)
			}
			return cb.Query().After("gorm:query").Before(otelgormAfter+"query").Register(n, fn)
		}},
		{"update", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Update().Before("gorm:update").Register(n, fn)
			}
			return cb.Update().After("gorm:update").Before(otelgormAfter+"update").Register(n, fn)
		}},
		{"delete", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Delete().Before("gorm:delete").Register(n, fn)
			}
			return cb.Delete().After("gorm:delete").Before(otelgormAfter+"delete").Register(n, fn)
		}},
		{"row", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Row().Before("gorm:row").Register(n, fn)
			}
			return cb.Row().After("gorm:row").Before(otelgormAfter+"row").Register(n, fn)
		}},
		{"raw", func(n string, before bool, fn func(*gorm.DB)) error {
			if before {
				return cb.Raw().Before("gorm:raw").Register(n, fn)
			}
			return cb.Raw().After("gorm:raw").Before(otelgormAfter+"raw").Register(n, fn)
		}},
	}

	for _, pair := range pairs {
		if err := pair.register("otel_timing:before_"+pair.op, true, markQueryStart); err != nil {
			return err
		}
		if err := pair.register("otel_timing:after_"+pair.op, false, p.afterQuery); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// afterQuery annotates the active span with row counts, failures and slowness.
func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	var elapsed time.Duration
	started, hasStart := ctx.Value(queryStartTimeKey).(time.Time)
	if hasStart {
		elapsed = time.Since(started)
	}
	slow := hasStart && elapsed > p.config.SlowQueryThresh
	if slow {
		p.logger.Warn("Slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
