/*
Package sale 应用层 - 销售单用例编排

应用层职责：
 1. 接收 Controller 传入的请求 DTO
 2. 在 UoW 中加载聚合、调用聚合方法、持久化
 3. 保存成功后按记录顺序发布领域事件，全部成功才清空事件日志
 4. 把聚合转换成响应 DTO

发布时机取决于 publisher：
  - bus / log / kafka / redis：事务提交后发布。发布失败不会回滚已提交的数据，
    调用方会收到 shared.ErrPublishFailed。
  - outbox（shared.TransactionalPublisher）：在 UoW 内、仓储保存之后写 outbox 行，
    与销售单同一事务提交或回滚，由 OutboxWorker 异步转发。
*/
package sale

import (
	"context"
	"fmt"

	"sales-service/domain/sale"
	"sales-service/domain/sale/query"
	"sales-service/domain/shared"
	"sales-service/pkg/logger"

	"go.uber.org/zap"
)

// CommandObserver 记录每个用例的结果（Prometheus 计数器由 pkg/metrics 实现）
type CommandObserver interface {
	ObserveCommand(command string, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveCommand(string, error) {}

// ApplicationService 销售单应用服务
type ApplicationService struct {
	repo        sale.Repository
	uow         shared.UnitOfWork
	publisher   shared.EventPublisher
	publishInTx bool
	observer    CommandObserver
}

// Option 配置 ApplicationService
type Option func(*ApplicationService)

// WithObserver 注入命令观测者
func WithObserver(observer CommandObserver) Option {
	return func(s *ApplicationService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// NewApplicationService 创建销售单应用服务
func NewApplicationService(
	repo sale.Repository,
	uow shared.UnitOfWork,
	publisher shared.EventPublisher,
	opts ...Option,
) *ApplicationService {
	s := &ApplicationService{
		repo:        repo,
		uow:         uow,
		publisher:   publisher,
		publishInTx: shared.PublishesInTransaction(publisher),
		observer:    noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// Commands
// ============================================================================

// CreateSale 创建销售单
// 先以空明细创建聚合，再逐条 AddItem，保证每条明细都经过数量校验
func (s *ApplicationService) CreateSale(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	var created *sale.Sale

	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		agg := sale.NewSale(req.properties(), nil)
		for _, item := range req.Items {
			if err := agg.AddItem(item.ProductID, item.ProductName, item.Quantity, item.UnitPrice); err != nil {
				return err
			}
		}

		persisted, err := s.repo.Add(ctx, agg)
		if err != nil {
			return err
		}
		created = persisted
		return s.publishInTransaction(ctx, persisted)
	})
	if err == nil {
		err = s.publishAfterCommit(ctx, created)
	}
	s.observer.ObserveCommand("create_sale", err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Sale created",
		zap.Int64("sale_id", created.ID()),
		zap.String("sale_number", created.SaleNumber()),
		zap.String("total_amount", created.TotalAmount().StringFixed(2)),
	)
	return toSaleResponse(created), nil
}

// UpdateSale 更新表头并按 id 对齐明细
func (s *ApplicationService) UpdateSale(ctx context.Context, saleID int64, req UpdateSaleRequest) (*SaleResponse, error) {
	return s.mutate(ctx, "update_sale", saleID, func(agg *sale.Sale) error {
		agg.UpdateSale(req.properties())
		return reconcileItems(agg, req.Items)
	})
}

// CancelSale 取消销售单，重复取消返回 ErrAlreadyCancelled
func (s *ApplicationService) CancelSale(ctx context.Context, saleID int64) (*SaleResponse, error) {
	return s.mutate(ctx, "cancel_sale", saleID, func(agg *sale.Sale) error {
		return agg.Cancel()
	})
}

// AddItem 追加明细
func (s *ApplicationService) AddItem(ctx context.Context, saleID int64, req SaleItemRequest) (*SaleResponse, error) {
	return s.mutate(ctx, "add_item", saleID, func(agg *sale.Sale) error {
		return agg.AddItem(req.ProductID, req.ProductName, req.Quantity, req.UnitPrice)
	})
}

// UpdateItem 修改已持久化的明细
func (s *ApplicationService) UpdateItem(ctx context.Context, saleID, itemID int64, req SaleItemRequest) (*SaleResponse, error) {
	return s.mutate(ctx, "update_item", saleID, func(agg *sale.Sale) error {
		return agg.UpdateItem(itemID, req.ProductID, req.ProductName, req.Quantity, req.UnitPrice)
	})
}

// RemoveItem 删除明细，明细不存在时返回 ErrItemNotFound
func (s *ApplicationService) RemoveItem(ctx context.Context, saleID, itemID int64) (*SaleResponse, error) {
	return s.mutate(ctx, "remove_item", saleID, func(agg *sale.Sale) error {
		if !agg.RemoveItem(itemID) {
			return sale.NewItemNotFoundError(itemID)
		}
		return nil
	})
}

// ClearItems 清空明细
func (s *ApplicationService) ClearItems(ctx context.Context, saleID int64) (*SaleResponse, error) {
	return s.mutate(ctx, "clear_items", saleID, func(agg *sale.Sale) error {
		agg.ClearItems()
		return nil
	})
}

// DeleteSale 物理删除销售单，不产生领域事件
func (s *ApplicationService) DeleteSale(ctx context.Context, saleID int64) error {
	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		deleted, err := s.repo.Delete(ctx, saleID)
		if err != nil {
			return err
		}
		if !deleted {
			return sale.NewSaleNotFoundError(saleID)
		}
		return nil
	})
	s.observer.ObserveCommand("delete_sale", err)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Sale deleted", zap.Int64("sale_id", saleID))
	return nil
}

// ============================================================================
// Queries
// ============================================================================

// GetSale 查询单个销售单
func (s *ApplicationService) GetSale(ctx context.Context, saleID int64) (*SaleResponse, error) {
	agg, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleResponse(agg), nil
}

// ListSales 过滤、排序、分页
func (s *ApplicationService) ListSales(ctx context.Context, q ListSalesQuery) (*SaleListResponse, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := query.Execute(all, query.Params{
		Filter: q.Filter,
		Order:  q.Order,
		Page:   q.Page,
		Size:   q.Size,
	})
	return toSaleListResponse(result), nil
}

// ============================================================================
// Helpers
// ============================================================================

// mutate 加载 -> 修改 -> 保存 -> 发布事件
func (s *ApplicationService) mutate(ctx context.Context, command string, saleID int64, fn func(*sale.Sale) error) (*SaleResponse, error) {
	var updated *sale.Sale

	err := s.uow.Execute(ctx, func(ctx context.Context) error {
		agg, err := s.repo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		if err := fn(agg); err != nil {
			return err
		}

		persisted, err := s.repo.Update(ctx, agg)
		if err != nil {
			return err
		}
		updated = persisted
		return s.publishInTransaction(ctx, persisted)
	})
	if err == nil {
		err = s.publishAfterCommit(ctx, updated)
	}
	s.observer.ObserveCommand(command, err)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Sale command applied",
		zap.String("command", command),
		zap.Int64("sale_id", updated.ID()),
		zap.Int("version", updated.Version()),
	)
	return toSaleResponse(updated), nil
}

// publishInTransaction 事务型发布器（outbox）在 UoW 内写事件，失败时整个事务回滚。
// 错误不包 ErrPublishFailed：销售单并没有保存下来。
func (s *ApplicationService) publishInTransaction(ctx context.Context, agg shared.AggregateRoot) error {
	if !s.publishInTx {
		return nil
	}
	return s.publishEvents(ctx, agg)
}

// publishAfterCommit 非事务型发布器在提交后发布；失败时数据已提交，返回 ErrPublishFailed
func (s *ApplicationService) publishAfterCommit(ctx context.Context, agg shared.AggregateRoot) error {
	if s.publishInTx {
		return nil
	}
	if err := s.publishEvents(ctx, agg); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPublishFailed, err)
	}
	return nil
}

// publishEvents 按记录顺序逐个发布；任一失败立即返回，事件日志保留
func (s *ApplicationService) publishEvents(ctx context.Context, agg shared.AggregateRoot) error {
	for _, event := range agg.DomainEvents() {
		if err := s.publisher.Publish(ctx, event); err != nil {
			logger.FromContext(ctx).Error("Failed to publish domain event",
				zap.String("event_name", event.EventName()),
				zap.String("aggregate_id", event.GetAggregateID()),
				zap.Bool("in_transaction", s.publishInTx),
				zap.Error(err),
			)
			return fmt.Errorf("%s: %w", event.EventName(), err)
		}
	}
	agg.ClearDomainEvents()
	return nil
}

// reconcileItems 让聚合的明细与请求一致。
// nil 表示不动明细；空切片清空；其余按 id 更新、新增、删除。
func reconcileItems(agg *sale.Sale, items []SaleItemRequest) error {
	if items == nil {
		return nil
	}
	if len(items) == 0 {
		if len(agg.Items()) > 0 {
			agg.ClearItems()
		}
		return nil
	}

	requested := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.ID > 0 {
			requested[item.ID] = struct{}{}
		}
	}
	for _, existing := range agg.Items() {
		if _, ok := requested[existing.ID()]; !ok {
			agg.RemoveItem(existing.ID())
		}
	}

	for _, item := range items {
		var err error
		if item.ID > 0 {
			err = agg.UpdateItem(item.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
		} else {
			err = agg.AddItem(item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
