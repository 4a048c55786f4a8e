package memory

import (
	"context"

	"sales-service/domain/shared"
	"sales-service/infrastructure/persistence/retry"
)

// UnitOfWork 内存存储没有事务，只负责乐观锁冲突重试
type UnitOfWork struct {
	retry retry.Config
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(cfg retry.Config) *UnitOfWork {
	return &UnitOfWork{retry: cfg}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.ExecuteWithRetry(ctx, u.retry, fn)
}
