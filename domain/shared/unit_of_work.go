package shared

import "context"

// UnitOfWork 管理一次业务操作的事务边界。
// fn 收到的 ctx 携带事务，仓储通过它参与同一事务。
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxRepository 把领域事件写入发件箱表，由后台 worker 异步转发。
type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}
