/*
Package memory 进程内存储，用于 database.driver=memory 和应用层测试。
读写都复制聚合，调用方拿到的对象与存储互不影响。
*/
package memory

import (
	"context"
	"slices"
	"sync"

	"sales-service/domain/sale"
)

type storedSale struct {
	dto sale.ReconstructionDTO
}

// SaleRepository 基于 map 的 sale.Repository 实现，带乐观锁版本检查
type SaleRepository struct {
	mu         sync.RWMutex
	sales      map[int64]storedSale
	nextSaleID int64
	nextItemID int64
}

var _ sale.Repository = (*SaleRepository)(nil)

func NewSaleRepository() *SaleRepository {
	return &SaleRepository{sales: make(map[int64]storedSale)}
}

func (r *SaleRepository) GetByID(_ context.Context, id int64) (*sale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.sales[id]
	if !ok {
		return nil, sale.NewSaleNotFoundError(id)
	}
	return sale.RebuildFromDTO(stored.dto), nil
}

// GetAll 按 id 升序返回
func (r *SaleRepository) GetAll(_ context.Context) ([]*sale.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.sales))
	for id := range r.sales {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]*sale.Sale, 0, len(ids))
	for _, id := range ids {
		result = append(result, sale.RebuildFromDTO(r.sales[id].dto))
	}
	return result, nil
}

// Add 分配 sale / item id 并回填到聚合和待发布事件上
func (r *SaleRepository) Add(_ context.Context, s *sale.Sale) (*sale.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSaleID++
	s.AssignIdentity(r.nextSaleID, r.allocateItemIDs(s))
	r.sales[s.ID()] = storedSale{dto: snapshot(s, s.Version()+1)}
	s.IncrementVersionForSave()
	return s, nil
}

// Update 版本不一致时返回 ErrConcurrentModification
func (r *SaleRepository) Update(_ context.Context, s *sale.Sale) (*sale.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sales[s.ID()]
	if !ok {
		return nil, sale.NewSaleNotFoundError(s.ID())
	}
	if stored.dto.Version != s.Version() {
		return nil, sale.NewConcurrentModificationError(s.ID())
	}

	s.AssignIdentity(s.ID(), r.allocateItemIDs(s))
	r.sales[s.ID()] = storedSale{dto: snapshot(s, s.Version()+1)}
	s.IncrementVersionForSave()
	return s, nil
}

func (r *SaleRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sales[id]; !ok {
		return false, nil
	}
	delete(r.sales, id)
	return true, nil
}

// allocateItemIDs 为尚未持久化的明细（id == 0）分配 id，已有 id 原样保留
func (r *SaleRepository) allocateItemIDs(s *sale.Sale) []int64 {
	items := s.Items()
	ids := make([]int64, len(items))
	for i, item := range items {
		if item.ID() != 0 {
			ids[i] = item.ID()
			continue
		}
		r.nextItemID++
		ids[i] = r.nextItemID
	}
	return ids
}

func snapshot(s *sale.Sale, version int) sale.ReconstructionDTO {
	return sale.ReconstructionDTO{
		ID:           s.ID(),
		SaleNumber:   s.SaleNumber(),
		SaleDate:     s.SaleDate(),
		CustomerID:   s.CustomerID(),
		CustomerName: s.CustomerName(),
		BranchID:     s.BranchID(),
		BranchName:   s.BranchName(),
		Items:        s.Items(),
		Cancelled:    s.IsCancelled(),
		Version:      version,
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}
