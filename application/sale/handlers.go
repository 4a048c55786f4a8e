package sale

import (
	"context"
	"fmt"

	"sales-service/domain/sale"
	"sales-service/domain/shared"

	"go.uber.org/zap"
)

// SaleCreatedHandler 记录销售单创建日志
type SaleCreatedHandler struct {
	log *zap.Logger
}

func NewSaleCreatedHandler(log *zap.Logger) *SaleCreatedHandler {
	return &SaleCreatedHandler{log: log}
}

func (h *SaleCreatedHandler) Name() string { return "sale-created-logger" }

func (h *SaleCreatedHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	e, ok := event.(sale.SaleCreated)
	if !ok {
		return fmt.Errorf("%s: unexpected event type %T", h.Name(), event)
	}

	h.log.Info("Sale created event received",
		zap.Int64("sale_id", e.SaleID),
		zap.String("sale_number", e.SaleNumber),
		zap.String("customer_name", e.CustomerName),
		zap.String("branch_name", e.BranchName),
		zap.String("total_amount", e.TotalAmount.StringFixed(2)),
		zap.Int("items_count", e.ItemsCount),
		zap.Time("occurred_at", e.OccurredAt),
	)
	return nil
}

// SaleCancelledHandler 记录销售单取消日志
type SaleCancelledHandler struct {
	log *zap.Logger
}

func NewSaleCancelledHandler(log *zap.Logger) *SaleCancelledHandler {
	return &SaleCancelledHandler{log: log}
}

func (h *SaleCancelledHandler) Name() string { return "sale-cancelled-logger" }

func (h *SaleCancelledHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	e, ok := event.(sale.SaleCancelled)
	if !ok {
		return fmt.Errorf("%s: unexpected event type %T", h.Name(), event)
	}

	h.log.Warn("Sale cancelled event received",
		zap.Int64("sale_id", e.SaleID),
		zap.String("sale_number", e.SaleNumber),
		zap.String("customer_name", e.CustomerName),
		zap.String("total_amount", e.TotalAmount.StringFixed(2)),
		zap.Time("cancelled_at", e.CancelledAt),
	)
	return nil
}

// RegisterEventHandlers 把日志处理器挂到事件总线上
func RegisterEventHandlers(bus *shared.EventBus, log *zap.Logger) error {
	if err := bus.Subscribe(sale.EventSaleCreated, NewSaleCreatedHandler(log)); err != nil {
		return err
	}
	return bus.Subscribe(sale.EventSaleCancelled, NewSaleCancelledHandler(log))
}
