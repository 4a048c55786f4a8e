package sale

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"sales-service/api/middleware"
	"sales-service/api/response"
	saleapp "sales-service/application/sale"
	"sales-service/domain/shared"
	"sales-service/infrastructure/persistence/memory"
	"sales-service/infrastructure/persistence/retry"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Error      string              `json:"error"`
	Code       int                 `json:"code"`
	Message    string              `json:"message"`
	RequestID  string              `json:"request_id"`
	Pagination response.Pagination `json:"pagination"`
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, shared.DomainEvent) error {
	return errors.New("broker unavailable")
}

func newEngine(publisher shared.EventPublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := saleapp.NewApplicationService(memory.NewSaleRepository(), memory.NewUnitOfWork(retry.DefaultConfig), publisher)

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	NewController(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeSale(t *testing.T, env envelope) saleapp.SaleResponse {
	t.Helper()
	var s saleapp.SaleResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	return s
}

const createBody = `{
	"sale_number": "SALE-100",
	"sale_date": "2024-02-01T00:00:00Z",
	"customer_id": 1,
	"customer_name": "John Doe",
	"branch_id": 2,
	"branch_name": "Downtown",
	"items": [
		{"product_id": 1, "product_name": "Mouse", "quantity": 4, "unit_price": 10},
		{"product_id": 2, "product_name": "Keyboard", "quantity": 10, "unit_price": "5.00"}
	]
}`

func TestCreateAndGetSale(t *testing.T) {
	engine := newEngine(shared.NewEventBus())

	w, env := do(t, engine, http.MethodPost, "/api/v1/sales", createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, w.Header().Get(middleware.RequestIDHeader))

	created := decodeSale(t, env)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, decimal.NewFromInt(76).Equal(created.TotalAmount), created.TotalAmount.String())
	require.Len(t, created.Items, 2)
	assert.True(t, decimal.NewFromInt(10).Equal(created.Items[1].Discount))

	w, env = do(t, engine, http.MethodGet, "/api/v1/sales/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SALE-100", decodeSale(t, env).SaleNumber)
}

func TestCreateSale_Errors(t *testing.T) {
	engine := newEngine(shared.NewEventBus())

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"sale_number":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing sale number", `{"customer_id":1,"customer_name":"a","branch_id":1,"branch_name":"b"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"quantity above limit", strings.Replace(createBody, `"quantity": 4`, `"quantity": 21`, 1), http.StatusUnprocessableEntity, "QUANTITY_LIMIT_EXCEEDED"},
		{"quantity below minimum", strings.Replace(createBody, `"quantity": 4`, `"quantity": 0`, 1), http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, engine, http.MethodPost, "/api/v1/sales", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error)
		})
	}
}

func TestCreateSale_PublishFailure(t *testing.T) {
	engine := newEngine(failingPublisher{})

	w, env := do(t, engine, http.MethodPost, "/api/v1/sales", createBody)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "EVENT_PUBLISH_FAILED", env.Error)

	w, _ = do(t, engine, http.MethodGet, "/api/v1/sales/1", "")
	assert.Equal(t, http.StatusOK, w.Code, "the sale is committed before publishing")
}

func TestGetSale_Errors(t *testing.T) {
	engine := newEngine(shared.NewEventBus())

	w, env := do(t, engine, http.MethodGet, "/api/v1/sales/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SALE_NOT_FOUND", env.Error)

	w, env = do(t, engine, http.MethodGet, "/api/v1/sales/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)
}

func TestCancelSale(t *testing.T) {
	engine := newEngine(shared.NewEventBus())
	do(t, engine, http.MethodPost, "/api/v1/sales", createBody)

	w, env := do(t, engine, http.MethodDelete, "/api/v1/sales/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeSale(t, env).Cancelled)

	w, env = do(t, engine, http.MethodDelete, "/api/v1/sales/1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SALE_ALREADY_CANCELLED", env.Error)
}

func TestUpdateSale(t *testing.T) {
	engine := newEngine(shared.NewEventBus())
	do(t, engine, http.MethodPost, "/api/v1/sales", createBody)

	body := `{"sale_number":"SALE-100","customer_id":1,"customer_name":"Jane Smith","branch_id":3,"branch_name":"Uptown"}`
	w, env := do(t, engine, http.MethodPut, "/api/v1/sales/1", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decodeSale(t, env)
	assert.Equal(t, "Jane Smith", updated.CustomerName)
	assert.Len(t, updated.Items, 2, "items are untouched when omitted")
}

func TestItemEndpoints(t *testing.T) {
	engine := newEngine(shared.NewEventBus())
	do(t, engine, http.MethodPost, "/api/v1/sales", createBody)

	w, env := do(t, engine, http.MethodPost, "/api/v1/sales/1/items",
		`{"product_id":3,"product_name":"Monitor","quantity":1,"unit_price":"100.50"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	withMonitor := decodeSale(t, env)
	require.Len(t, withMonitor.Items, 3)
	monitorID := withMonitor.Items[2].ID

	w, env = do(t, engine, http.MethodPut, "/api/v1/sales/1/items/"+itoa(monitorID),
		`{"product_id":3,"product_name":"Monitor","quantity":2,"unit_price":"100.50"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decodeSale(t, env).Items[2].Quantity)

	w, env = do(t, engine, http.MethodDelete, "/api/v1/sales/1/items/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SALE_ITEM_NOT_FOUND", env.Error)

	w, env = do(t, engine, http.MethodDelete, "/api/v1/sales/1/items/"+itoa(monitorID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeSale(t, env).Items, 2)

	w, env = do(t, engine, http.MethodDelete, "/api/v1/sales/1/items", "")
	require.Equal(t, http.StatusOK, w.Code)
	cleared := decodeSale(t, env)
	assert.Empty(t, cleared.Items)
	assert.True(t, cleared.TotalAmount.IsZero())
}

func TestListSales(t *testing.T) {
	engine := newEngine(shared.NewEventBus())
	for _, name := range []string{"John Doe", "Mary Johnson", "John Brown"} {
		body := strings.Replace(createBody, "John Doe", name, 1)
		w, _ := do(t, engine, http.MethodPost, "/api/v1/sales", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, env := do(t, engine, http.MethodGet, "/api/v1/sales?size=1&page=2&order=customername&filter=customername%3Djohn*", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []saleapp.SaleResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "John Doe", items[0].CustomerName)
	assert.Equal(t, response.Pagination{Page: 2, PageSize: 1, TotalItems: 2, TotalPages: 2}, env.Pagination)

	_, env = do(t, engine, http.MethodGet, "/api/v1/sales", "")
	assert.Equal(t, response.Pagination{Page: 1, PageSize: 10, TotalItems: 3, TotalPages: 1}, env.Pagination)
}

func TestDeleteSale(t *testing.T) {
	engine := newEngine(shared.NewEventBus())
	do(t, engine, http.MethodPost, "/api/v1/sales", createBody)

	w, _ := do(t, engine, http.MethodDelete, "/api/v1/sales/1/purge", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, env := do(t, engine, http.MethodDelete, "/api/v1/sales/1/purge", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SALE_NOT_FOUND", env.Error)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
