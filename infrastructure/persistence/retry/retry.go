/*
Package retry 事务级重试：乐观锁冲突、死锁、锁等待超时时按指数退避重新执行整个事务。
*/
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"sales-service/config"
	"sales-service/domain/sale"
	"sales-service/pkg/logger"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Config struct {
	Enabled                       bool
	MaxAttempts                   int
	InitialDelay                  time.Duration
	MaxDelay                      time.Duration
	BackoffFactor                 float64
	JitterEnabled                 bool
	RetryOnConcurrentModification bool
	RetryOnDeadlock               bool
	RetryOnLockTimeout            bool
	RetryPredicate                func(error) bool
}

var DefaultConfig = Config{
	Enabled:                       true,
	MaxAttempts:                   3,
	InitialDelay:                  100 * time.Millisecond,
	MaxDelay:                      2 * time.Second,
	BackoffFactor:                 2.0,
	JitterEnabled:                 true,
	RetryOnConcurrentModification: true,
	RetryOnDeadlock:               true,
	RetryOnLockTimeout:            true,
}

func FromAppConfig(cfg config.RetryConfig) Config {
	return Config{
		Enabled:                       cfg.Enabled,
		MaxAttempts:                   cfg.MaxAttempts,
		InitialDelay:                  cfg.InitialDelay,
		MaxDelay:                      cfg.MaxDelay,
		BackoffFactor:                 cfg.BackoffFactor,
		JitterEnabled:                 cfg.JitterEnabled,
		RetryOnConcurrentModification: cfg.RetryOnConcurrentModification,
		RetryOnDeadlock:               cfg.RetryOnDeadlock,
		RetryOnLockTimeout:            cfg.RetryOnLockTimeout,
	}
}

// reason 可重试错误的分类
type reason int

const (
	notRetryable reason = iota
	concurrentModification
	deadlock
	lockTimeout
)

func (r reason) String() string {
	switch r {
	case concurrentModification:
		return "concurrent_modification"
	case deadlock:
		return "deadlock"
	case lockTimeout:
		return "lock_timeout"
	default:
		return "none"
	}
}

// classify 识别 MySQL / PostgreSQL / SQLite 的锁冲突
func classify(err error) reason {
	if errors.Is(err, sale.ErrConcurrentModification) {
		return concurrentModification
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1213:
			return deadlock
		case 1205:
			return lockTimeout
		}
		return notRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return deadlock
		case "55P03": // lock_not_available
			return lockTimeout
		}
		return notRetryable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadlock"):
		return deadlock
	case strings.Contains(msg, "lock wait timeout"), strings.Contains(msg, "database is locked"):
		return lockTimeout
	}
	return notRetryable
}

func IsRetryableError(err error, cfg Config) bool {
	if err == nil {
		return false
	}
	if cfg.RetryPredicate != nil && cfg.RetryPredicate(err) {
		return true
	}

	switch classify(err) {
	case concurrentModification:
		return cfg.RetryOnConcurrentModification
	case deadlock:
		return cfg.RetryOnDeadlock
	case lockTimeout:
		return cfg.RetryOnLockTimeout
	default:
		return false
	}
}

// ExponentialBackoffWithJitter 第 attempt 次失败后的等待时间，抖动范围 ±20%
func ExponentialBackoffWithJitter(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	delay = math.Min(delay, float64(cfg.MaxDelay))
	if cfg.JitterEnabled {
		delay *= 0.8 + rand.Float64()*0.4
	}
	return time.Duration(math.Max(delay, 0))
}

// ExecuteWithRetry fn 必须可以整体重放（每次都重新加载聚合）
func ExecuteWithRetry(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts || !IsRetryableError(lastErr, cfg) {
			break
		}

		delay := ExponentialBackoffWithJitter(attempt, cfg)
		logger.FromContext(ctx).Warn("Retrying transaction",
			zap.Int("attempt", attempt),
			zap.String("reason", classify(lastErr).String()),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return lastErr
}
