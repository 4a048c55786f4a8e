/*
Package sale - 销售单 API 控制器

职责:
 1. 解析路径参数、查询参数和请求体
 2. 调用应用服务
 3. 使用 response 包统一输出

错误处理:
 1. 参数绑定 / 路径参数错误: response.HandleError 返回 400
 2. 业务错误: response.HandleAppError，由 errors.FromDomainError 映射状态码
*/
package sale

import (
	"fmt"
	"net/http"
	"strconv"

	"sales-service/api/ctxutil"
	"sales-service/api/response"
	saleapp "sales-service/application/sale"

	"github.com/gin-gonic/gin"
)

// Controller 销售单控制器
type Controller struct {
	saleService *saleapp.ApplicationService
}

// NewController 创建销售单控制器
func NewController(saleService *saleapp.ApplicationService) *Controller {
	return &Controller{saleService: saleService}
}

// RegisterRoutes 注册销售单路由
func (c *Controller) RegisterRoutes(router gin.IRouter) {
	sales := router.Group("/sales")
	{
		sales.GET("", c.ListSales)
		sales.POST("", c.CreateSale)
		sales.GET("/:id", c.GetSale)
		sales.PUT("/:id", c.UpdateSale)
		sales.DELETE("/:id", c.CancelSale)
		sales.DELETE("/:id/purge", c.DeleteSale)

		sales.POST("/:id/items", c.AddItem)
		sales.DELETE("/:id/items", c.ClearItems)
		sales.PUT("/:id/items/:itemId", c.UpdateItem)
		sales.DELETE("/:id/items/:itemId", c.RemoveItem)
	}
}

// ListSales 分页查询
// GET /api/v1/sales?page=1&size=10&order=date desc&filter=customername=john*
func (c *Controller) ListSales(ctx *gin.Context) {
	var q saleapp.ListSalesQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}

	result, err := c.saleService.ListSales(ctxutil.WithRequestID(ctx), q)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandlePaginated(ctx, result.Items, response.Pagination{
		Page:       result.Page,
		PageSize:   result.Size,
		TotalItems: result.TotalItems,
		TotalPages: result.TotalPages,
	}, "sales retrieved successfully")
}

// GetSale GET /api/v1/sales/:id
func (c *Controller) GetSale(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	sale, err := c.saleService.GetSale(ctxutil.WithRequestID(ctx), saleID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, sale, "sale retrieved successfully")
}

// CreateSale POST /api/v1/sales
func (c *Controller) CreateSale(ctx *gin.Context) {
	var req saleapp.CreateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	sale, err := c.saleService.CreateSale(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, sale, "sale created successfully")
}

// UpdateSale PUT /api/v1/sales/:id
func (c *Controller) UpdateSale(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req saleapp.UpdateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	sale, err := c.saleService.UpdateSale(ctxutil.WithRequestID(ctx), saleID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, sale, "sale updated successfully")
}

// CancelSale 取消销售单（软删除）
// DELETE /api/v1/sales/:id
func (c *Controller) CancelSale(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	sale, err := c.saleService.CancelSale(ctxutil.WithRequestID(ctx), saleID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, sale, "sale cancelled successfully")
}

// DeleteSale 物理删除
// DELETE /api/v1/sales/:id/purge
func (c *Controller) DeleteSale(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.saleService.DeleteSale(ctxutil.WithRequestID(ctx), saleID); err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleNoContent(ctx)
}

// AddItem POST /api/v1/sales/:id/items
func (c *Controller) AddItem(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req saleapp.SaleItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	sale, err := c.saleService.AddItem(ctxutil.WithRequestID(ctx), saleID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, sale, "item added successfully")
}

// UpdateItem PUT /api/v1/sales/:id/items/:itemId
func (c *Controller) UpdateItem(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, "itemId")
	if !ok {
		return
	}

	var req saleapp.SaleItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	sale, err := c.saleService.UpdateItem(ctxutil.WithRequestID(ctx), saleID, itemID, req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, sale, "item updated successfully")
}

// RemoveItem DELETE /api/v1/sales/:id/items/:itemId
func (c *Controller) RemoveItem(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(ctx, "itemId")
	if !ok {
		return
	}

	sale, err := c.saleService.RemoveItem(ctxutil.WithRequestID(ctx), saleID, itemID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, sale, "item removed successfully")
}

// ClearItems DELETE /api/v1/sales/:id/items
func (c *Controller) ClearItems(ctx *gin.Context) {
	saleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	sale, err := c.saleService.ClearItems(ctxutil.WithRequestID(ctx), saleID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, sale, "items cleared successfully")
}

// pathID 解析正整数路径参数，失败时已经写出 400
func pathID(ctx *gin.Context, name string) (int64, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.HandleError(ctx, fmt.Errorf("%s must be a positive integer, got %q", name, raw), "invalid path parameter", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
