/*
Package envelope 领域事件的线上格式。

所有发布渠道（kafka、redis、outbox 表、日志）都使用同一个 JSON 信封：

	{"event_id": "...", "event_name": "sale.created", "aggregate_id": "42",
	 "occurred_at": "2024-01-01T00:00:00Z", "payload": {...}}

payload 是事件结构体本身的 JSON。
*/
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sales-service/domain/shared"

	"github.com/google/uuid"
)

type Envelope struct {
	EventID     string          `json:"event_id"`
	EventName   string          `json:"event_name"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// New 校验事件并生成带新 event_id 的信封
func New(event shared.DomainEvent) (Envelope, error) {
	if err := shared.ValidateEvent(event); err != nil {
		return Envelope{}, fmt.Errorf("invalid domain event: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event.EventName(), err)
	}

	// v7 按时间单调递增，outbox 以此作为同一时刻写入的次序
	eventID, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, fmt.Errorf("generate event id: %w", err)
	}

	return Envelope{
		EventID:     eventID.String(),
		EventName:   event.EventName(),
		AggregateID: event.GetAggregateID(),
		OccurredAt:  event.OccurredOn().UTC(),
		Payload:     payload,
	}, nil
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Key 分区键，保证同一销售单的事件有序
func (e Envelope) Key() []byte {
	return []byte(e.AggregateID)
}

func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.EventName == "" || e.EventID == "" {
		return Envelope{}, errors.New("decode envelope: missing event_id or event_name")
	}
	return e, nil
}
