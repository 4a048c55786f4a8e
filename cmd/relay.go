package cmd

import (
	"context"
	"fmt"
	"io"

	"sales-service/config"
	"sales-service/infrastructure/messaging"
	"sales-service/pkg/logger"
	"sales-service/pkg/metrics"
)

type relayCloser interface {
	messaging.Relay
	io.Closer
}

// NewRelay 构造 log / kafka / redis 中的一种。网络 relay 在 events.breaker.enabled 时包一层熔断器。
// 返回的 close 函数释放底层连接，log relay 时为空操作。
func NewRelay(ctx context.Context, kind string, cfg *config.Config, m *metrics.Metrics) (messaging.Relay, func() error, error) {
	var relay relayCloser

	switch kind {
	case "log":
		return messaging.NewLogRelay(logger.Get()), func() error { return nil }, nil
	case "kafka":
		relay = messaging.NewKafkaRelay(cfg.Events.Kafka)
	case "redis":
		redisRelay, err := messaging.NewRedisRelay(ctx, cfg.Events.Redis)
		if err != nil {
			return nil, nil, err
		}
		relay = redisRelay
	default:
		return nil, nil, fmt.Errorf("unsupported relay %q", kind)
	}

	if !cfg.Events.Breaker.Enabled {
		return relay, relay.Close, nil
	}

	var observer messaging.StateObserver
	if m != nil {
		observer = m
	}
	breaker := messaging.NewBreakerRelay(kind, relay, cfg.Events.Breaker, observer)
	return breaker, breaker.Close, nil
}
