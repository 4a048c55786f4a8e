package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest 创建销售单入参。items 可以为空。
type CreateSaleRequest struct {
	SaleNumber   string            `json:"sale_number" binding:"required,max=50"`
	SaleDate     time.Time         `json:"sale_date"`
	CustomerID   int64             `json:"customer_id" binding:"required"`
	CustomerName string            `json:"customer_name" binding:"required,max=100"`
	BranchID     int64             `json:"branch_id" binding:"required"`
	BranchName   string            `json:"branch_name" binding:"required,max=100"`
	Items        []SaleItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateSaleRequest 更新销售单入参。
// Items 为 nil（字段缺省）时不动明细；为空数组时清空全部明细；
// 否则按 id 对齐：带 id 的更新、不带 id 的新增、请求中缺失的删除。
type UpdateSaleRequest struct {
	SaleNumber   string            `json:"sale_number" binding:"required,max=50"`
	SaleDate     time.Time         `json:"sale_date"`
	CustomerID   int64             `json:"customer_id" binding:"required"`
	CustomerName string            `json:"customer_name" binding:"required,max=100"`
	BranchID     int64             `json:"branch_id" binding:"required"`
	BranchName   string            `json:"branch_name" binding:"required,max=100"`
	Items        []SaleItemRequest `json:"items" binding:"omitempty,dive"`
}

// SaleItemRequest 单个明细。数量与单价的业务校验交给领域层。
type SaleItemRequest struct {
	ID          int64           `json:"id,omitempty"`
	ProductID   int64           `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,max=100"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ListSalesQuery 列表查询参数，缺省 page=1, size=10。
type ListSalesQuery struct {
	Page   int    `form:"page,default=1"`
	Size   int    `form:"size,default=10"`
	Order  string `form:"order"`
	Filter string `form:"filter"`
}

// SaleResponse 销售单返回模型。
type SaleResponse struct {
	ID           int64              `json:"id"`
	SaleNumber   string             `json:"sale_number"`
	SaleDate     time.Time          `json:"sale_date"`
	CustomerID   int64              `json:"customer_id"`
	CustomerName string             `json:"customer_name"`
	BranchID     int64              `json:"branch_id"`
	BranchName   string             `json:"branch_name"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Cancelled    bool               `json:"cancelled"`
	Items        []SaleItemResponse `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// SaleItemResponse 明细返回模型。
type SaleItemResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// SaleListResponse 一页销售单。TotalItems 是过滤后的总数。
type SaleListResponse struct {
	Items      []SaleResponse `json:"items"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
}
