package messaging

import (
	"context"
	"fmt"
	"time"

	"sales-service/config"
	"sales-service/infrastructure/messaging/envelope"

	goredis "github.com/redis/go-redis/v9"
)

// redisPublisher *goredis.Client 的子集
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
	Close() error
}

// RedisRelay 通过 PUBLISH 广播到一个频道
type RedisRelay struct {
	client  redisPublisher
	channel string
}

// NewRedisRelay 连接并 ping 一次，失败时关闭连接
func NewRedisRelay(ctx context.Context, cfg config.RedisConfig) (*RedisRelay, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisRelay{client: client, channel: cfg.Channel}, nil
}

func newRedisRelayWithClient(client redisPublisher, channel string) *RedisRelay {
	return &RedisRelay{client: client, channel: channel}
}

func (r *RedisRelay) Relay(ctx context.Context, env envelope.Envelope) error {
	raw, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.EventName, err)
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to channel %s: %w", env.EventName, r.channel, err)
	}
	return nil
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}
