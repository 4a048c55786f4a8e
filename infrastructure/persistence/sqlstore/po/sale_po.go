package po

import (
	"time"

	"sales-service/domain/sale"

	"github.com/shopspring/decimal"
)

// SalePO 销售单表
// 只做表映射，不定义 GORM 关联，明细由仓储手动读写
type SalePO struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	SaleNumber   string          `gorm:"size:50;not null;index"`
	SaleDate     time.Time       `gorm:"not null;index"`
	CustomerID   int64           `gorm:"not null;index"`
	CustomerName string          `gorm:"size:100;not null"`
	BranchID     int64           `gorm:"not null"`
	BranchName   string          `gorm:"size:100;not null"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Cancelled    bool            `gorm:"not null;default:false"`
	Version      int             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SalePO) TableName() string {
	return "sales"
}

// SaleItemPO 销售明细表，discount / total 冗余存储便于报表
type SaleItemPO struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	SaleID      int64           `gorm:"not null;index"`
	ProductID   int64           `gorm:"not null"`
	ProductName string          `gorm:"size:100;not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

func (SaleItemPO) TableName() string {
	return "sale_items"
}

// FromSaleDomain 聚合 -> 表记录；version 由调用方决定写入值
func FromSaleDomain(s *sale.Sale, version int) (*SalePO, []SaleItemPO) {
	salePO := &SalePO{
		ID:           s.ID(),
		SaleNumber:   s.SaleNumber(),
		SaleDate:     s.SaleDate(),
		CustomerID:   s.CustomerID(),
		CustomerName: s.CustomerName(),
		BranchID:     s.BranchID(),
		BranchName:   s.BranchName(),
		TotalAmount:  s.TotalAmount(),
		Cancelled:    s.IsCancelled(),
		Version:      version,
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}

	items := s.Items()
	itemPOs := make([]SaleItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = SaleItemPO{
			ID:          item.ID(),
			SaleID:      s.ID(),
			ProductID:   item.ProductID(),
			ProductName: item.ProductName(),
			Quantity:    item.Quantity(),
			UnitPrice:   item.UnitPrice(),
			Discount:    item.Discount(),
			Total:       item.Total(),
		}
	}
	return salePO, itemPOs
}

// ToDomain 表记录 -> 聚合；折扣与金额由领域层重新计算
func (p *SalePO) ToDomain(itemPOs []SaleItemPO) *sale.Sale {
	items := make([]sale.SaleItem, len(itemPOs))
	for i, itemPO := range itemPOs {
		items[i] = sale.RebuildItemFromDTO(sale.ItemReconstructionDTO{
			ID:          itemPO.ID,
			ProductID:   itemPO.ProductID,
			ProductName: itemPO.ProductName,
			Quantity:    itemPO.Quantity,
			UnitPrice:   itemPO.UnitPrice,
		})
	}

	return sale.RebuildFromDTO(sale.ReconstructionDTO{
		ID:           p.ID,
		SaleNumber:   p.SaleNumber,
		SaleDate:     p.SaleDate,
		CustomerID:   p.CustomerID,
		CustomerName: p.CustomerName,
		BranchID:     p.BranchID,
		BranchName:   p.BranchName,
		Items:        items,
		Cancelled:    p.Cancelled,
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	})
}
