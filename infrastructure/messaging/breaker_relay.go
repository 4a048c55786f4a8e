package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"

	"sales-service/config"
	"sales-service/infrastructure/messaging/envelope"
	"sales-service/pkg/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrRelayUnavailable 熔断器打开，事件未尝试投递
var ErrRelayUnavailable = errors.New("event relay unavailable")

// StateObserver 熔断器状态变化回调，pkg/metrics 实现
type StateObserver interface {
	ObserveBreaker(name string, state gobreaker.State)
}

// BreakerRelay 连续失败达到阈值后快速失败，Timeout 后进入半开放试探
type BreakerRelay struct {
	next Relay
	cb   *gobreaker.CircuitBreaker
	name string
}

func NewBreakerRelay(name string, next Relay, cfg config.BreakerConfig, observer StateObserver) *BreakerRelay {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if observer != nil {
				observer.ObserveBreaker(name, to)
			}
		},
	}

	return &BreakerRelay{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
		name: name,
	}
}

func (r *BreakerRelay) Relay(ctx context.Context, env envelope.Envelope) error {
	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.next.Relay(ctx, env)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrRelayUnavailable, r.name, err)
	}
	return err
}

func (r *BreakerRelay) State() gobreaker.State {
	return r.cb.State()
}

func (r *BreakerRelay) Close() error {
	if closer, ok := r.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
