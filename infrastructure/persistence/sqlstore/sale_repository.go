package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"sales-service/domain/sale"
	"sales-service/infrastructure/persistence"
	"sales-service/infrastructure/persistence/sqlstore/po"

	"gorm.io/gorm"
)

// SaleRepository GORM 实现的销售单仓储
// 不使用 GORM 关联，聚合边界由仓储手动维护
type SaleRepository struct {
	db *gorm.DB
}

var _ sale.Repository = (*SaleRepository)(nil)

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// inTx 复用 UoW 事务；没有则开启短事务
func (r *SaleRepository) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return fn(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*sale.Sale, error) {
	db := persistence.DB(ctx, r.db)

	var salePO po.SalePO
	if err := db.First(&salePO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sale.NewSaleNotFoundError(id)
		}
		return nil, fmt.Errorf("load sale %d: %w", id, err)
	}

	var itemPOs []po.SaleItemPO
	if err := db.Where("sale_id = ?", id).Order("id ASC").Find(&itemPOs).Error; err != nil {
		return nil, fmt.Errorf("load items of sale %d: %w", id, err)
	}
	return salePO.ToDomain(itemPOs), nil
}

// GetAll 一次查询全部明细后按 sale_id 分组，避免 N+1
func (r *SaleRepository) GetAll(ctx context.Context) ([]*sale.Sale, error) {
	db := persistence.DB(ctx, r.db)

	var salePOs []po.SalePO
	if err := db.Order("id ASC").Find(&salePOs).Error; err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	if len(salePOs) == 0 {
		return []*sale.Sale{}, nil
	}

	var itemPOs []po.SaleItemPO
	if err := db.Order("sale_id ASC, id ASC").Find(&itemPOs).Error; err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	itemsBySale := make(map[int64][]po.SaleItemPO, len(salePOs))
	for _, item := range itemPOs {
		itemsBySale[item.SaleID] = append(itemsBySale[item.SaleID], item)
	}

	sales := make([]*sale.Sale, len(salePOs))
	for i := range salePOs {
		sales[i] = salePOs[i].ToDomain(itemsBySale[salePOs[i].ID])
	}
	return sales, nil
}

// Add 插入销售单和明细，回填数据库生成的 id
func (r *SaleRepository) Add(ctx context.Context, s *sale.Sale) (*sale.Sale, error) {
	salePO, itemPOs := po.FromSaleDomain(s, s.Version()+1)
	salePO.ID = 0

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(salePO).Error; err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}
		for i := range itemPOs {
			itemPOs[i].ID = 0
			itemPOs[i].SaleID = salePO.ID
		}
		if len(itemPOs) > 0 {
			if err := tx.Create(&itemPOs).Error; err != nil {
				return fmt.Errorf("insert sale items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.AssignIdentity(salePO.ID, itemIDs(itemPOs))
	s.IncrementVersionForSave()
	return s, nil
}

// Update 以 version 做乐观锁：WHERE id = ? AND version = ?，0 行受影响即冲突
func (r *SaleRepository) Update(ctx context.Context, s *sale.Sale) (*sale.Sale, error) {
	salePO, itemPOs := po.FromSaleDomain(s, s.Version()+1)

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&po.SalePO{}).
			Where("id = ? AND version = ?", s.ID(), s.Version()).
			Updates(map[string]any{
				"sale_number":   salePO.SaleNumber,
				"sale_date":     salePO.SaleDate,
				"customer_id":   salePO.CustomerID,
				"customer_name": salePO.CustomerName,
				"branch_id":     salePO.BranchID,
				"branch_name":   salePO.BranchName,
				"total_amount":  salePO.TotalAmount,
				"cancelled":     salePO.Cancelled,
				"version":       salePO.Version,
				"updated_at":    salePO.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("update sale %d: %w", s.ID(), result.Error)
		}
		if result.RowsAffected == 0 {
			return r.missingOrStale(tx, s.ID())
		}

		return r.syncItems(tx, s.ID(), itemPOs)
	})
	if err != nil {
		return nil, err
	}

	s.AssignIdentity(s.ID(), itemIDs(itemPOs))
	s.IncrementVersionForSave()
	return s, nil
}

// syncItems 删除已移除的明细，更新已有明细，插入新明细（插入后 itemPOs 中的 id 被回填）
func (r *SaleRepository) syncItems(tx *gorm.DB, saleID int64, itemPOs []po.SaleItemPO) error {
	keep := make([]int64, 0, len(itemPOs))
	for _, item := range itemPOs {
		if item.ID != 0 {
			keep = append(keep, item.ID)
		}
	}

	remove := tx.Where("sale_id = ?", saleID)
	if len(keep) > 0 {
		remove = remove.Where("id NOT IN ?", keep)
	}
	if err := remove.Delete(&po.SaleItemPO{}).Error; err != nil {
		return fmt.Errorf("delete removed items of sale %d: %w", saleID, err)
	}

	for i := range itemPOs {
		item := &itemPOs[i]
		if item.ID == 0 {
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("insert item of sale %d: %w", saleID, err)
			}
			continue
		}
		err := tx.Model(&po.SaleItemPO{}).
			Where("id = ? AND sale_id = ?", item.ID, saleID).
			Updates(map[string]any{
				"product_id":   item.ProductID,
				"product_name": item.ProductName,
				"quantity":     item.Quantity,
				"unit_price":   item.UnitPrice,
				"discount":     item.Discount,
				"total":        item.Total,
			}).Error
		if err != nil {
			return fmt.Errorf("update item %d: %w", item.ID, err)
		}
	}
	return nil
}

func (r *SaleRepository) missingOrStale(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&po.SalePO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check sale %d: %w", id, err)
	}
	if count == 0 {
		return sale.NewSaleNotFoundError(id)
	}
	return sale.NewConcurrentModificationError(id)
}

// Delete 物理删除销售单及其明细
func (r *SaleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("sale_id = ?", id).Delete(&po.SaleItemPO{}).Error; err != nil {
			return fmt.Errorf("delete items of sale %d: %w", id, err)
		}
		result := tx.Delete(&po.SalePO{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete sale %d: %w", id, result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func itemIDs(itemPOs []po.SaleItemPO) []int64 {
	ids := make([]int64, len(itemPOs))
	for i, item := range itemPOs {
		ids[i] = item.ID
	}
	return ids
}
