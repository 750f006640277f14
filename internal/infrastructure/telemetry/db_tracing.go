package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls span generation for ledger and purchase order
// queries.
type DBTracingConfig struct {
	Enabled          bool
	LogFullSQL       bool          // include full SQL in spans, dev only
	SlowQueryThresh  time.Duration // queries above this get a slow_query_warning event
	DBSystem         string
	WithoutVariables bool // strip bind variables from recorded SQL
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, SQL
// text and bind variables kept out of spans.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// WithQueryStartTime stamps the context so the after callbacks can
// measure elapsed query time.
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}

// stampStartTime is the shared before callback.
func stampStartTime(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = WithQueryStartTime(db.Statement.Context)
	}
}

// annotateSpan decorates the active span with row counts, table name,
// errors, and slow query markers. ErrRecordNotFound is an expected
// outcome for lookups and never marks the span failed.
func annotateSpan(db *gorm.DB, thresh time.Duration) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > thresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", thresh.Milliseconds()),
			))
		}
	}
}

// registerForAllOperations hooks fn around every GORM operation type,
// anchored on the matching gorm builtin. when is "before" or "after".
func registerForAllOperations(db *gorm.DB, prefix, when string, fn func(*gorm.DB)) error {
	var ops []struct {
		name     string
		register func(string, func(*gorm.DB)) error
	}
	if when == "before" {
		ops = []struct {
			name     string
			register func(string, func(*gorm.DB)) error
		}{
			{"create", db.Callback().Create().Before("gorm:create").Register},
			{"query", db.Callback().Query().Before("gorm:query").Register},
			{"update", db.Callback().Update().Before("gorm:update").Register},
			{"delete", db.Callback().Delete().Before("gorm:delete").Register},
			{"row", db.Callback().Row().Before("gorm:row").Register},
			{"raw", db.Callback().Raw().Before("gorm:raw").Register},
		}
	} else {
		ops = []struct {
			name     string
			register func(string, func(*gorm.DB)) error
		}{
			{"create", db.Callback().Create().After("gorm:create").Register},
			{"query", db.Callback().Query().After("gorm:query").Register},
			{"update", db.Callback().Update().After("gorm:update").Register},
			{"delete", db.Callback().Delete().After("gorm:delete").Register},
			{"row", db.Callback().Row().After("gorm:row").Register},
			{"raw", db.Callback().Raw().After("gorm:raw").Register},
		}
	}

	for _, op := range ops {
		if err := op.register(prefix+":"+when+"_"+op.name, fn); err != nil {
			return err
		}
	}

	return nil
}

// DBTracingPlugin wraps otelgorm and layers slow query detection on top.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// RegisterOtelGorm installs the otelgorm plugin plus the timing and
// slow query callbacks. A second registration on the same DB fails on
// the duplicate callback names.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if err := registerForAllOperations(db, "otel_timing", "before", stampStartTime); err != nil {
		return err
	}
	if err := registerForAllOperations(db, "otel_slow_query", "after", p.slowQueryCallback); err != nil {
		return err
	}

	p.logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

func (p *DBTracingPlugin) slowQueryCallback(db *gorm.DB) {
	annotateSpan(db, p.config.SlowQueryThresh)
}

// DBTracingCallback is the standalone variant for code paths that do
// not want the full otelgorm plugin, such as read replicas used only
// by the marketplace order viewer.
type DBTracingCallback struct {
	slowQueryThresh time.Duration
}

func NewDBTracingCallback(slowQueryThresh time.Duration) *DBTracingCallback {
	return &DBTracingCallback{slowQueryThresh: slowQueryThresh}
}

// BeforeCallback stamps the query start time in the statement context.
func (c *DBTracingCallback) BeforeCallback(db *gorm.DB) {
	stampStartTime(db)
}

// AfterCallback annotates the active span for the finished statement.
func (c *DBTracingCallback) AfterCallback(db *gorm.DB) {
	annotateSpan(db, c.slowQueryThresh)
}

// RegisterCallbacks hooks both callbacks around every operation type.
func (c *DBTracingCallback) RegisterCallbacks(db *gorm.DB) error {
	if err := registerForAllOperations(db, "otel_timing", "before", c.BeforeCallback); err != nil {
		return err
	}
	return registerForAllOperations(db, "otel_timing", "after", c.AfterCallback)
}
