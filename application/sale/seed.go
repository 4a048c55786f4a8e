package sale

import (
	"context"
	"fmt"
	"time"

	"sales-service/domain/sale"
	"sales-service/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type seedItem struct {
	productID   int64
	productName string
	quantity    int
	unitPrice   string
}

type seedSale struct {
	number       string
	daysAgo      int
	customerID   int64
	customerName string
	branchID     int64
	branchName   string
	cancelled    bool
	items        []seedItem
}

var demoSales = []seedSale{
	{"SALE-001", 30, 1, "João Silva", 1, "Loja Centro", false, []seedItem{{1, "Notebook Dell Inspiron", 1, "1500.00"}}},
	{"SALE-002", 25, 2, "Maria Santos", 2, "Loja Norte", false, []seedItem{
		{2, "Mouse Wireless Logitech", 2, "150.00"},
		{3, "Teclado Mecânico RGB", 1, "450.00"},
		{4, `Monitor 24" Samsung`, 1, "1580.50"},
	}},
	{"SALE-003", 20, 3, "Pedro Oliveira", 1, "Loja Centro", false, []seedItem{{5, "Headphone Bluetooth", 1, "890.75"}}},
	{"SALE-004", 15, 4, "Ana Costa", 3, "Loja Sul", false, []seedItem{{6, "Smartphone iPhone 15", 1, "3200.00"}}},
	{"SALE-005", 10, 5, "Carlos Ferreira", 2, "Loja Norte", false, []seedItem{{7, "Tablet Samsung Galaxy", 1, "1750.25"}}},
	{"SALE-006", 8, 1, "João Silva", 1, "Loja Centro", true, nil},
	{"SALE-007", 5, 6, "Lucia Martins", 3, "Loja Sul", false, []seedItem{{9, "Câmera DSLR Canon", 1, "2100.00"}}},
	{"SALE-008", 3, 7, "Roberto Lima", 1, "Loja Centro", false, []seedItem{{10, "Console PlayStation 5", 1, "1800.50"}}},
	{"SALE-009", 2, 8, "Fernanda Rocha", 2, "Loja Norte", false, []seedItem{{11, "Laptop MacBook Pro", 1, "2750.75"}}},
	{"SALE-010", 1, 9, "Marcos Alves", 3, "Loja Sul", false, []seedItem{{12, "Fone de Ouvido AirPods", 1, "1200.00"}}},
}

// Seed 在仓储为空时写入演示数据，返回写入条数。
// 种子数据不发布事件。
func Seed(ctx context.Context, repo sale.Repository) (int, error) {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("check existing sales: %w", err)
	}
	if len(existing) > 0 {
		logger.Debug("Skip seeding, sales already present", zap.Int("count", len(existing)))
		return 0, nil
	}

	now := time.Now().UTC()
	for _, demo := range demoSales {
		agg := sale.NewSale(sale.Properties{
			SaleNumber:   demo.number,
			SaleDate:     now.AddDate(0, 0, -demo.daysAgo),
			CustomerID:   demo.customerID,
			CustomerName: demo.customerName,
			BranchID:     demo.branchID,
			BranchName:   demo.branchName,
		}, nil)

		for _, item := range demo.items {
			if err := agg.AddItem(item.productID, item.productName, item.quantity, decimal.RequireFromString(item.unitPrice)); err != nil {
				return 0, fmt.Errorf("seed %s: %w", demo.number, err)
			}
		}
		if demo.cancelled {
			if err := agg.Cancel(); err != nil {
				return 0, fmt.Errorf("seed %s: %w", demo.number, err)
			}
		}
		agg.ClearDomainEvents()

		if _, err := repo.Add(ctx, agg); err != nil {
			return 0, fmt.Errorf("seed %s: %w", demo.number, err)
		}
	}

	logger.Info("Seeded demo sales", zap.Int("count", len(demoSales)))
	return len(demoSales), nil
}
