package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-service/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_LevelFiltering(t *testing.T) {
	testCases := []struct {
		name      string
		level     gormlogger.LogLevel
		wantInfo  bool
		wantWarn  bool
		wantTrace bool
	}{
		{"Silent", gormlogger.Silent, false, false, false},
		{"Warn", gormlogger.Warn, false, true, false},
		{"Info", gormlogger.Info, true, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			restore := Replace(zap.New(core))
			defer restore()

			adapter := NewGormLogger(tc.level)
			ctx := context.Background()
			adapter.Info(ctx, "info %d", 1)
			adapter.Warn(ctx, "warn %d", 2)
			adapter.Trace(ctx, time.Now(), func() (string, int64) {
				return "SELECT * FROM sales", 1
			}, nil)

			assertFound(t, logs, "info 1", tc.wantInfo)
			assertFound(t, logs, "warn 2", tc.wantWarn)
			assertFound(t, logs, "SQL query executed", tc.wantTrace)
		})
	}
}

func TestGormLogger_SlowQueryAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	defer restore()

	adapter := NewGormLoggerWithConfig(gormlogger.Warn, &GormLoggerConfig{
		SlowThreshold:             time.Millisecond,
		IgnoreRecordNotFoundError: true,
	})
	ctx := persistence.ContextWithRequestID(context.Background(), "test-request-123")

	adapter.Trace(ctx, time.Now().Add(-10*time.Millisecond), func() (string, int64) {
		return "SELECT * FROM sales WHERE id = 1", 1
	}, nil)
	adapter.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT * FROM sales WHERE id = 999", 0
	}, gormlogger.ErrRecordNotFound)
	adapter.Trace(ctx, time.Now(), func() (string, int64) {
		return "INSERT INTO sales", 0
	}, errors.New("constraint failed"))

	slow := logs.FilterMessage("Slow SQL query").All()
	if len(slow) != 1 {
		t.Fatalf("expected 1 slow query entry, got %d", len(slow))
	}
	if slow[0].ContextMap()["request_id"] != "test-request-123" {
		t.Error("request_id should be propagated from context")
	}

	failed := logs.FilterMessage("Database operation failed").All()
	if len(failed) != 1 {
		t.Fatalf("record-not-found must be skipped, got %d failure entries", len(failed))
	}
	if failed[0].ContextMap()["sql"] != "INSERT INTO sales" {
		t.Errorf("unexpected failed sql: %v", failed[0].ContextMap()["sql"])
	}
}

func TestParseGormLevel(t *testing.T) {
	if ParseGormLevel("info") != gormlogger.Info || ParseGormLevel("silent") != gormlogger.Silent ||
		ParseGormLevel("error") != gormlogger.Error || ParseGormLevel("bogus") != gormlogger.Warn {
		t.Error("ParseGormLevel mapping mismatch")
	}
}

func assertFound(t *testing.T, logs *observer.ObservedLogs, msg string, want bool) {
	t.Helper()
	got := logs.FilterMessage(msg).Len() > 0
	if got != want {
		t.Errorf("message %q logged = %v, want %v", msg, got, want)
	}
}
