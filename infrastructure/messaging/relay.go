/*
Package messaging 领域事件的投递渠道。

Relay 负责把编码好的信封送到下游（日志、kafka、redis），既可以被 OutboxWorker
调用，也可以通过 Publisher 在请求路径上直接发布。
*/
package messaging

import (
	"context"

	"sales-service/domain/shared"
	"sales-service/infrastructure/messaging/envelope"
)

type Relay interface {
	Relay(ctx context.Context, env envelope.Envelope) error
}

// Publisher 把领域事件编码成信封后交给 Relay
type Publisher struct {
	relay Relay
}

var _ shared.EventPublisher = (*Publisher)(nil)

func NewPublisher(relay Relay) *Publisher {
	return &Publisher{relay: relay}
}

func (p *Publisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	env, err := envelope.New(event)
	if err != nil {
		return err
	}
	return p.relay.Relay(ctx, env)
}
