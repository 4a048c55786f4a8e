package shared

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DomainEvent is an immutable record of something that happened to an aggregate.
type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
}

// EventPublisher delivers one event to downstream consumers.
// Implementations must return an error when delivery was not accepted.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// TransactionalPublisher is a publisher whose writes join the caller's transaction
// (the outbox). Such publishers are called inside the UnitOfWork right after the
// aggregate is saved, so events commit or roll back together with it.
type TransactionalPublisher interface {
	EventPublisher
	InTransaction() bool
}

// PublishesInTransaction reports whether p must be called inside the UnitOfWork.
func PublishesInTransaction(p EventPublisher) bool {
	tp, ok := p.(TransactionalPublisher)
	return ok && tp.InTransaction()
}

// EventHandler reacts to events dispatched by the EventBus.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	Name() string
}

type EventPublishResult struct {
	EventName   string    `json:"event_name"`
	AggregateID string    `json:"aggregate_id"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

const maxPublishHistory = 1000

func ValidateEvent(event DomainEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.EventName() == "" {
		return errors.New("event name cannot be empty")
	}
	if event.GetAggregateID() == "" {
		return fmt.Errorf("event %s: aggregate ID cannot be empty", event.EventName())
	}
	if event.OccurredOn().IsZero() {
		return fmt.Errorf("event %s: occurred on time cannot be zero", event.EventName())
	}
	return nil
}

// EventBus dispatches events synchronously to the handlers subscribed by event name.
// A handler error fails the publish so the caller observes it.
type EventBus struct {
	handlers  map[string][]EventHandler
	mu        sync.RWMutex
	history   []EventPublishResult
	muHistory sync.Mutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

func (bus *EventBus) Publish(ctx context.Context, event DomainEvent) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}

	bus.mu.RLock()
	handlers := append([]EventHandler(nil), bus.handlers[event.EventName()]...)
	bus.mu.RUnlock()

	result := EventPublishResult{
		EventName:   event.EventName(),
		AggregateID: event.GetAggregateID(),
		Success:     true,
		PublishedAt: time.Now(),
	}
	if len(handlers) == 0 {
		result.Message = "no handlers registered for this event"
		bus.record(result)
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", handler.Name(), err))
		}
	}
	if len(errs) > 0 {
		result.Success = false
		result.Message = fmt.Sprintf("%d handlers failed", len(errs))
		bus.record(result)
		return fmt.Errorf("event %s: %w", event.EventName(), errors.Join(errs...))
	}

	bus.record(result)
	return nil
}

func (bus *EventBus) record(result EventPublishResult) {
	bus.muHistory.Lock()
	defer bus.muHistory.Unlock()

	bus.history = append(bus.history, result)
	if len(bus.history) > maxPublishHistory {
		bus.history = bus.history[len(bus.history)-maxPublishHistory:]
	}
}

func (bus *EventBus) Subscribe(eventName string, handler EventHandler) error {
	if eventName == "" {
		return errors.New("event name cannot be empty")
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, h := range bus.handlers[eventName] {
		if h.Name() == handler.Name() {
			return fmt.Errorf("handler %s already subscribed to %s", handler.Name(), eventName)
		}
	}
	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
	return nil
}

func (bus *EventBus) Unsubscribe(eventName string, handler EventHandler) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	handlers := bus.handlers[eventName]
	for i, h := range handlers {
		if h.Name() == handler.Name() {
			bus.handlers[eventName] = append(handlers[:i:i], handlers[i+1:]...)
			return
		}
	}
}

// PublishHistory returns a copy of the most recent publish results.
func (bus *EventBus) PublishHistory() []EventPublishResult {
	bus.muHistory.Lock()
	defer bus.muHistory.Unlock()

	history := make([]EventPublishResult, len(bus.history))
	copy(history, bus.history)
	return history
}

// FuncHandler adapts a function to EventHandler.
type FuncHandler struct {
	name string
	fn   func(context.Context, DomainEvent) error
}

func NewFuncHandler(name string, fn func(context.Context, DomainEvent) error) *FuncHandler {
	if name == "" {
		name = fmt.Sprintf("func-handler-%d", time.Now().UnixNano())
	}
	return &FuncHandler{name: name, fn: fn}
}

func (h *FuncHandler) Handle(ctx context.Context, event DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *FuncHandler) Name() string {
	return h.name
}

var _ EventPublisher = (*EventBus)(nil)
