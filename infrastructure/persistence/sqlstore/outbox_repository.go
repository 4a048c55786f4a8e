package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sales-service/domain/shared"
	"sales-service/infrastructure/messaging/envelope"
	"sales-service/infrastructure/persistence"
	"sales-service/infrastructure/persistence/sqlstore/po"

	"gorm.io/gorm"
)

// ErrEventClaimed 事件已被其他 worker 领取
var ErrEventClaimed = errors.New("outbox event already claimed")

const maxLastErrorLen = 500

// OutboxRepository 事务性 outbox 表的读写
type OutboxRepository struct {
	db *gorm.DB
}

var _ shared.OutboxRepository = (*OutboxRepository)(nil)

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// SaveEvent 写入一条 PENDING 事件；在 UoW 事务中调用时随业务数据一起提交
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	env, err := envelope.New(event)
	if err != nil {
		return err
	}
	if err := persistence.DB(ctx, r.db).Create(po.FromEnvelope(env)).Error; err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}
	return nil
}

// GetPendingEvents 按写入顺序取待发布事件
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error) {
	var events []*po.OutboxEventPO
	err := persistence.DB(ctx, r.db).
		Where("status = ?", string(po.EventStatusPending)).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

// MarkEventProcessing PENDING -> PROCESSING，条件更新保证只有一个 worker 领取成功
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	result := persistence.DB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Where("id = ? AND status = ?", eventID, string(po.EventStatusPending)).
		Updates(map[string]any{
			"status":     string(po.EventStatusProcessing),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEventClaimed, eventID)
	}
	return nil
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result := persistence.DB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":     string(po.EventStatusPublished),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("outbox event not found: %s", eventID)
	}
	return nil
}

// MarkEventFailed 重试次数未用完时回到 PENDING，否则置为 FAILED；返回最终状态
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, cause error, maxRetries int) (po.EventStatus, error) {
	db := persistence.DB(ctx, r.db)

	var event po.OutboxEventPO
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		return "", fmt.Errorf("failed to find event: %w", err)
	}

	retryCount := event.RetryCount + 1
	status := po.EventStatusFailed
	if retryCount < maxRetries {
		status = po.EventStatusPending
	}

	lastError := ""
	if cause != nil {
		lastError = cause.Error()
		if len(lastError) > maxLastErrorLen {
			lastError = lastError[:maxLastErrorLen]
		}
	}

	err := db.Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":      string(status),
			"retry_count": retryCount,
			"last_error":  lastError,
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		return "", err
	}
	return status, nil
}

// ReleaseStuck 把超过 olderThan 仍处于 PROCESSING 的事件放回 PENDING（worker 崩溃后恢复）
func (r *OutboxRepository) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	result := persistence.DB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Where("status = ? AND updated_at < ?", string(po.EventStatusProcessing), time.Now().UTC().Add(-olderThan)).
		Updates(map[string]any{
			"status":     string(po.EventStatusPending),
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// CountByStatus 各状态事件数，供指标和排查使用
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[po.EventStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := persistence.DB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[po.EventStatus]int64, len(rows))
	for _, row := range rows {
		counts[po.EventStatus(row.Status)] = row.Count
	}
	return counts, nil
}
