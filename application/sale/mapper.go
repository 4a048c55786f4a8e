package sale

import (
	"sales-service/domain/sale"
	"sales-service/domain/sale/query"
)

func (r CreateSaleRequest) properties() sale.Properties {
	return sale.Properties{
		SaleNumber:   r.SaleNumber,
		SaleDate:     r.SaleDate,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		BranchID:     r.BranchID,
		BranchName:   r.BranchName,
	}
}

func (r UpdateSaleRequest) properties() sale.Properties {
	return sale.Properties{
		SaleNumber:   r.SaleNumber,
		SaleDate:     r.SaleDate,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		BranchID:     r.BranchID,
		BranchName:   r.BranchName,
	}
}

func toSaleResponse(s *sale.Sale) *SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items()))
	for _, item := range s.Items() {
		items = append(items, SaleItemResponse{
			ID:          item.ID(),
			ProductID:   item.ProductID(),
			ProductName: item.ProductName(),
			Quantity:    item.Quantity(),
			UnitPrice:   item.UnitPrice(),
			Discount:    item.Discount(),
			Total:       item.Total(),
		})
	}

	return &SaleResponse{
		ID:           s.ID(),
		SaleNumber:   s.SaleNumber(),
		SaleDate:     s.SaleDate(),
		CustomerID:   s.CustomerID(),
		CustomerName: s.CustomerName(),
		BranchID:     s.BranchID(),
		BranchName:   s.BranchName(),
		TotalAmount:  s.TotalAmount(),
		Cancelled:    s.IsCancelled(),
		Items:        items,
		CreatedAt:    s.CreatedAt(),
		UpdatedAt:    s.UpdatedAt(),
	}
}

func toSaleListResponse(result query.Result) *SaleListResponse {
	items := make([]SaleResponse, 0, len(result.Items))
	for _, s := range result.Items {
		items = append(items, *toSaleResponse(s))
	}

	return &SaleListResponse{
		Items:      items,
		Page:       result.Page,
		Size:       result.Size,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages(),
	}
}
