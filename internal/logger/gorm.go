package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM output through slog: failed statements at error level,
// slow statements at warn level, everything else at debug.
type GormLogger struct {
	log           *slog.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

// NewGormLogger wraps l for use as gorm.Config.Logger.
func NewGormLogger(l *slog.Logger, slowThreshold time.Duration) *GormLogger {
	if l == nil {
		l = L()
	}
	return &GormLogger{log: l.With("layer", "gorm"), slowThreshold: slowThreshold, level: gormlogger.Warn}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Info {
		FromContext(ctx, g.log).Info(msg, "data", data)
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Warn {
		FromContext(ctx, g.log).Warn(msg, "data", data)
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.level >= gormlogger.Error {
		FromContext(ctx, g.log).Error(msg, "data", data)
	}
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := since(begin)
	l := FromContext(ctx, g.log)

	switch {
	// record-not-found is an expected outcome for lookups
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		l.Error("sql failed", "err", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.slowThreshold > 0 && elapsed >= g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		l.Warn("slow sql", "elapsed", elapsed, "rows", rows, "sql", sql)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		l.Debug("sql", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
