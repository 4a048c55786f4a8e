package sqlstore

import (
	"context"

	"sales-service/domain/shared"
	"sales-service/infrastructure/persistence"
	"sales-service/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWork 在一个数据库事务中执行 fn，可重试错误整体重放。
// 领域事件不在这里处理，由应用层在提交后发布。
type UnitOfWork struct {
	db          *gorm.DB
	retryConfig retry.Config
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB, retryConfig retry.Config) *UnitOfWork {
	return &UnitOfWork{db: db, retryConfig: retryConfig}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.ExecuteWithRetry(ctx, u.retryConfig, func(ctx context.Context) error {
		// 已在事务中（嵌套调用）时直接复用
		if persistence.TxFromContext(ctx) != nil {
			return fn(ctx)
		}
		return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(persistence.ContextWithTx(ctx, tx))
		})
	})
}
