package messaging

import (
	"context"

	"sales-service/domain/shared"
)

type EventObserver interface {
	ObserveEvent(eventName string, err error)
}

// InstrumentedPublisher 统计每次发布的结果
type InstrumentedPublisher struct {
	next     shared.EventPublisher
	observer EventObserver
}

var _ shared.EventPublisher = (*InstrumentedPublisher)(nil)

func NewInstrumentedPublisher(next shared.EventPublisher, observer EventObserver) *InstrumentedPublisher {
	return &InstrumentedPublisher{next: next, observer: observer}
}

func (p *InstrumentedPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	err := p.next.Publish(ctx, event)
	p.observer.ObserveEvent(event.EventName(), err)
	return err
}

// InTransaction 透传被包装发布器的事务语义，套上统计后 outbox 仍在 UoW 内发布
func (p *InstrumentedPublisher) InTransaction() bool {
	return shared.PublishesInTransaction(p.next)
}
