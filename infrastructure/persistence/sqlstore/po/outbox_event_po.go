package po

import (
	"time"

	"sales-service/infrastructure/messaging/envelope"
)

// OutboxEventPO outbox 表，一行一个待转发的领域事件
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"` // sale.created, sale.modified ...
	OccurredAt  time.Time `gorm:"not null"`
	Payload     string    `gorm:"type:text;not null"`
	Status      string    `gorm:"size:20;index;not null;default:PENDING"`
	RetryCount  int       `gorm:"not null;default:0"`
	LastError   string    `gorm:"size:500"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (OutboxEventPO) TableName() string {
	return "outbox_events"
}

type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusPublished  EventStatus = "PUBLISHED"
	EventStatusFailed     EventStatus = "FAILED"
)

func FromEnvelope(env envelope.Envelope) *OutboxEventPO {
	now := time.Now().UTC()
	return &OutboxEventPO{
		ID:          env.EventID,
		AggregateID: env.AggregateID,
		EventType:   env.EventName,
		OccurredAt:  env.OccurredAt,
		Payload:     string(env.Payload),
		Status:      string(EventStatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (p *OutboxEventPO) ToEnvelope() envelope.Envelope {
	return envelope.Envelope{
		EventID:     p.ID,
		EventName:   p.EventType,
		AggregateID: p.AggregateID,
		OccurredAt:  p.OccurredAt,
		Payload:     []byte(p.Payload),
	}
}
