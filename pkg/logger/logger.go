/*
Package logger 提供项目统一日志能力。

全局 zap.Logger 由 Init 创建；未初始化时所有函数都退化为 no-op，
方便单元测试直接调用业务代码。
*/
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sales-service/config"
	"sales-service/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log       *zap.Logger
	atomLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init 根据配置创建全局 logger
func Init(cfg *config.LogConfig, env string) error {
	atomLevel.SetLevel(parseLevel(cfg.Level))

	writeSyncer, err := buildWriteSyncer(cfg)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(buildEncoder(cfg.Format, env), writeSyncer, atomLevel)
	log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

// Replace 替换全局 logger，返回恢复函数。测试里配合 zaptest/observer 使用。
func Replace(l *zap.Logger) func() {
	prev := log
	log = l
	return func() { log = prev }
}

func buildEncoder(format, env string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	switch format {
	case "json":
		return zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	if env == "dev" || env == "development" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func buildWriteSyncer(cfg *config.LogConfig) (zapcore.WriteSyncer, error) {
	var writers []io.Writer

	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 7),
			Compress:   cfg.Compress,
		})
	}
	if cfg.Output != "file" {
		writers = append(writers, os.Stdout)
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, w := range writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}
	return zapcore.NewMultiWriteSyncer(syncers...), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// parseLevel 未知级别按 info 处理
func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func Get() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// UpdateLevel 运行时调整日志级别
func UpdateLevel(level string) {
	atomLevel.SetLevel(parseLevel(level))
}

// Level 当前日志级别
func Level() zapcore.Level {
	return atomLevel.Level()
}

// Sync 刷新缓冲；stdout/终端上的 sync 错误忽略
func Sync() error {
	if log == nil {
		return nil
	}
	err := log.Sync()
	if err == nil {
		return nil
	}
	for _, ignorable := range []string{"inappropriate ioctl for device", "invalid argument", "bad file descriptor"} {
		if strings.Contains(err.Error(), ignorable) {
			return nil
		}
	}
	return err
}

func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

func WithRequestID(requestID string) *zap.Logger {
	if requestID == "" {
		return Get()
	}
	return Get().With(zap.String("request_id", requestID))
}

// FromContext 带上 ctx 中的 request_id
func FromContext(ctx context.Context) *zap.Logger {
	return WithRequestID(persistence.RequestIDFromContext(ctx))
}

// WithFields 把 map 转成 zap 字段，值类型由 zap.Any 判定
func WithFields(fields map[string]any) *zap.Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			zapFields = append(zapFields, zap.NamedError(k, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return Get().With(zapFields...)
}

func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }

// Fatal 未初始化时不退出进程
func Fatal(msg string, fields ...zap.Field) {
	if log != nil {
		log.Fatal(msg, fields...)
	}
}
