package messaging

import (
	"context"

	"sales-service/infrastructure/messaging/envelope"

	"go.uber.org/zap"
)

// LogRelay 只写日志，用于本地开发和没有消息中间件的部署
type LogRelay struct {
	log *zap.Logger
}

func NewLogRelay(log *zap.Logger) *LogRelay {
	return &LogRelay{log: log.Named("events")}
}

func (r *LogRelay) Relay(_ context.Context, env envelope.Envelope) error {
	r.log.Info("Domain event published",
		zap.String("event_id", env.EventID),
		zap.String("event_name", env.EventName),
		zap.String("aggregate_id", env.AggregateID),
		zap.Time("occurred_at", env.OccurredAt),
		zap.ByteString("payload", env.Payload),
	)
	return nil
}
