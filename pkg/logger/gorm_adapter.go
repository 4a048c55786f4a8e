package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-service/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerConfig GORM 日志适配参数
type GormLoggerConfig struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

func DefaultGormLoggerConfig() *GormLoggerConfig {
	return &GormLoggerConfig{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
	}
}

// GormLogger 把 GORM 的日志写到 zap，带上 ctx 里的 request_id
type GormLogger struct {
	level  gormlogger.LogLevel
	base   *zap.Logger
	config GormLoggerConfig
}

var _ gormlogger.Interface = (*GormLogger)(nil)

func NewGormLogger(level gormlogger.LogLevel) *GormLogger {
	return NewGormLoggerWithConfig(level, nil)
}

func NewGormLoggerWithConfig(level gormlogger.LogLevel, cfg *GormLoggerConfig) *GormLogger {
	if cfg == nil {
		cfg = DefaultGormLoggerConfig()
	}
	return &GormLogger{
		level:  level,
		base:   Get().Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		config: *cfg,
	}
}

// ParseGormLevel silent, error, warn, info；其余按 warn
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, gormlogger.Info, zapcore.InfoLevel, fmt.Sprintf(msg, args...))
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, gormlogger.Warn, zapcore.WarnLevel, fmt.Sprintf(msg, args...))
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, gormlogger.Error, zapcore.ErrorLevel, fmt.Sprintf(msg, args...))
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if errors.Is(err, gormlogger.ErrRecordNotFound) && l.config.IgnoreRecordNotFoundError {
			return
		}
		l.write(ctx, gormlogger.Error, zapcore.ErrorLevel, "Database operation failed", append(fields, zap.Error(err))...)
	case l.config.SlowThreshold > 0 && elapsed > l.config.SlowThreshold:
		l.write(ctx, gormlogger.Warn, zapcore.WarnLevel, "Slow SQL query", append(fields, zap.Duration("threshold", l.config.SlowThreshold))...)
	default:
		l.write(ctx, gormlogger.Info, zapcore.DebugLevel, "SQL query executed", fields...)
	}
}

// write 先按 GORM 级别过滤，再按 zap 级别输出
func (l *GormLogger) write(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, fields ...zap.Field) {
	if l.level < min {
		return
	}
	logger := l.base
	if requestID := persistence.RequestIDFromContext(ctx); requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}
	if ce := logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
