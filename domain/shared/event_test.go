package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	name        string
	aggregateID string
	at          time.Time
}

func (e stubEvent) EventName() string      { return e.name }
func (e stubEvent) OccurredOn() time.Time  { return e.at }
func (e stubEvent) GetAggregateID() string { return e.aggregateID }

func newStubEvent(name string) stubEvent {
	return stubEvent{name: name, aggregateID: "1", at: time.Now()}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   DomainEvent
		wantErr string
	}{
		{"nil", nil, "cannot be nil"},
		{"empty name", stubEvent{aggregateID: "1", at: time.Now()}, "name cannot be empty"},
		{"empty aggregate", stubEvent{name: "sale.created", at: time.Now()}, "aggregate ID"},
		{"zero time", stubEvent{name: "sale.created", aggregateID: "1"}, "occurred on"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, ValidateEvent(tt.event), tt.wantErr)
		})
	}
	assert.NoError(t, ValidateEvent(newStubEvent("sale.created")))
}

func TestEventBus_DispatchesByName(t *testing.T) {
	bus := NewEventBus()

	var got []string
	handler := NewFuncHandler("recorder", func(_ context.Context, e DomainEvent) error {
		got = append(got, e.EventName())
		return nil
	})
	require.NoError(t, bus.Subscribe("sale.created", handler))
	require.NoError(t, bus.Subscribe("sale.cancelled", handler))

	require.NoError(t, bus.Publish(context.Background(), newStubEvent("sale.created")))
	require.NoError(t, bus.Publish(context.Background(), newStubEvent("sale.modified")))
	require.NoError(t, bus.Publish(context.Background(), newStubEvent("sale.cancelled")))

	assert.Equal(t, []string{"sale.created", "sale.cancelled"}, got)

	history := bus.PublishHistory()
	require.Len(t, history, 3)
	assert.True(t, history[1].Success)
	assert.Equal(t, "no handlers registered for this event", history[1].Message)
}

func TestEventBus_HandlerErrorFailsPublish(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	require.NoError(t, bus.Subscribe("sale.created", NewFuncHandler("broken", func(context.Context, DomainEvent) error {
		return boom
	})))

	err := bus.Publish(context.Background(), newStubEvent("sale.created"))
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "handler broken")

	history := bus.PublishHistory()
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus()
	noop := NewFuncHandler("noop", func(context.Context, DomainEvent) error { return nil })

	assert.Error(t, bus.Subscribe("", noop))
	assert.Error(t, bus.Subscribe("sale.created", nil))
	require.NoError(t, bus.Subscribe("sale.created", noop))
	assert.ErrorContains(t, bus.Subscribe("sale.created", noop), "already subscribed")

	bus.Unsubscribe("sale.created", noop)
	assert.NoError(t, bus.Subscribe("sale.created", noop), "unsubscribed handlers can subscribe again")
}

func TestEventBus_RejectsInvalidEvent(t *testing.T) {
	bus := NewEventBus()
	assert.Error(t, bus.Publish(context.Background(), stubEvent{name: "sale.created"}))
	assert.Empty(t, bus.PublishHistory())
}
