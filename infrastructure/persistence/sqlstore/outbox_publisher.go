package sqlstore

import (
	"context"

	"sales-service/domain/shared"
)

// OutboxPublisher 把“发布”落成 outbox 表中的一行，真正的投递由 OutboxWorker 完成。
// 必须在 UoW 内调用：ctx 携带的事务决定这一行与业务数据一起提交。
type OutboxPublisher struct {
	repository *OutboxRepository
}

var _ shared.TransactionalPublisher = (*OutboxPublisher)(nil)

func NewOutboxPublisher(repository *OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{repository: repository}
}

func (p *OutboxPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	return p.repository.SaveEvent(ctx, event)
}

// InTransaction outbox 行必须和销售单写在同一个事务里
func (p *OutboxPublisher) InTransaction() bool { return true }
