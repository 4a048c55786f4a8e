package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-service/infrastructure/messaging/envelope"
	"sales-service/infrastructure/persistence/sqlstore/po"
	"sales-service/pkg/logger"

	"go.uber.org/zap"
)

// Relay 把 outbox 中的事件转发到下游（日志、kafka、redis）
type Relay interface {
	Relay(ctx context.Context, env envelope.Envelope) error
}

// WorkerObserver 每处理一条事件回调一次
type WorkerObserver interface {
	ObserveRelay(eventName string, status string)
}

type BatchResult struct {
	Published int
	Retried   int
	Failed    int
	Skipped   int
}

type OutboxWorker struct {
	repository   *OutboxRepository
	relay        Relay
	observer     WorkerObserver
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	stuckAfter   time.Duration
}

func NewOutboxWorker(
	repository *OutboxRepository,
	relay Relay,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*OutboxWorker, error) {
	if repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if relay == nil {
		return nil, errors.New("outbox relay is required")
	}
	if pollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, errors.New("batch size must be positive")
	}
	if maxRetries <= 0 {
		return nil, errors.New("max retries must be positive")
	}

	return &OutboxWorker{
		repository:   repository,
		relay:        relay,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		stuckAfter:   10 * pollInterval,
	}, nil
}

func (w *OutboxWorker) SetObserver(observer WorkerObserver) {
	w.observer = observer
}

// Run 周期性处理，直到 ctx 取消
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	logger.Info("Outbox worker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if released, err := w.repository.ReleaseStuck(ctx, w.stuckAfter); err != nil {
				logger.Warn("Failed to release stuck outbox events", zap.Error(err))
			} else if released > 0 {
				logger.Warn("Released stuck outbox events", zap.Int64("count", released))
			}

			result, err := w.ProcessBatch(ctx)
			if err != nil {
				logger.Error("Outbox batch processing failed", zap.Error(err))
				continue
			}
			if result != (BatchResult{}) {
				logger.Debug("Outbox batch processed",
					zap.Int("published", result.Published),
					zap.Int("retried", result.Retried),
					zap.Int("failed", result.Failed),
					zap.Int("skipped", result.Skipped),
				)
			}
		}
	}
}

// ProcessBatch 领取一批 PENDING 事件并逐个转发
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	events, err := w.repository.GetPendingEvents(ctx, w.batchSize)
	if err != nil {
		return result, err
	}

	for _, event := range events {
		if err := w.repository.MarkEventProcessing(ctx, event.ID); err != nil {
			logger.Warn("Skip outbox event due to lock contention",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}

		if relayErr := w.relay.Relay(ctx, event.ToEnvelope()); relayErr != nil {
			status, err := w.repository.MarkEventFailed(ctx, event.ID, relayErr, w.maxRetries)
			if err != nil {
				return result, fmt.Errorf("mark event %s failed: %w", event.ID, err)
			}
			logger.Warn("Outbox relay failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("status", string(status)),
				zap.Error(relayErr),
			)
			if status == po.EventStatusFailed {
				result.Failed++
			} else {
				result.Retried++
			}
			w.observe(event.EventType, status)
			continue
		}

		if err := w.repository.MarkEventPublished(ctx, event.ID); err != nil {
			return result, fmt.Errorf("mark event %s published: %w", event.ID, err)
		}
		result.Published++
		w.observe(event.EventType, po.EventStatusPublished)
	}
	return result, nil
}

func (w *OutboxWorker) observe(eventName string, status po.EventStatus) {
	if w.observer != nil {
		w.observer.ObserveRelay(eventName, string(status))
	}
}
