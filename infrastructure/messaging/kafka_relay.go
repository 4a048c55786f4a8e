package messaging

import (
	"context"
	"fmt"
	"time"

	"sales-service/config"
	"sales-service/infrastructure/messaging/envelope"

	"github.com/segmentio/kafka-go"
)

// kafkaWriter *kafka.Writer 的子集
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRelay 每个事件一条消息，key 为 aggregate_id，同一销售单落在同一分区
type KafkaRelay struct {
	writer kafkaWriter
	topic  string
}

func NewKafkaRelay(cfg config.KafkaConfig) *KafkaRelay {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &KafkaRelay{writer: writer, topic: cfg.Topic}
}

func newKafkaRelayWithWriter(writer kafkaWriter, topic string) *KafkaRelay {
	return &KafkaRelay{writer: writer, topic: topic}
}

func (r *KafkaRelay) Relay(ctx context.Context, env envelope.Envelope) error {
	value, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.EventName, err)
	}

	msg := kafka.Message{
		Key:   env.Key(),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(env.EventID)},
			{Key: "event-name", Value: []byte(env.EventName)},
			{Key: "occurred-at", Value: []byte(env.OccurredAt.Format(time.RFC3339Nano))},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: env.OccurredAt,
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s to topic %s: %w", env.EventName, r.topic, err)
	}
	return nil
}

func (r *KafkaRelay) Close() error {
	return r.writer.Close()
}
