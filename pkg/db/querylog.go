package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// queryLogger routes GORM's logging through the service logger so query
// problems carry the request's context fields.
type queryLogger struct {
	logg  *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
	all   bool
}

func newQueryLogger(logg *logger.Logger, slow time.Duration, all bool) *queryLogger {
	return &queryLogger{logg: logg, level: gormlogger.Warn, slow: slow, all: all}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.logg.Error(ctx, "db.error", fmt.Errorf(msg, args...))
	}
}

// Trace logs failed statements, statements slower than the threshold, and
// with query logging on, everything else at debug. Missing rows are not
// failures.
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow
	if !failed && !slow && !l.all {
		return
	}

	sql, rows := fc()
	logCtx := l.logg.WithFields(ctx, map[string]any{
		"sql":        sql,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	switch {
	case failed && l.level >= gormlogger.Error:
		l.logg.Error(logCtx, "db.query_failed", err)
	case slow && l.level >= gormlogger.Warn:
		l.logg.Warn(logCtx, "db.slow_query")
	case l.all:
		l.logg.Debug(logCtx, "db.query")
	}
}
