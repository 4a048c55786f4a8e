package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	saleapp "sales-service/application/sale"
	"sales-service/domain/sale"
	"sales-service/domain/shared"
	"sales-service/infrastructure/persistence/sqlstore/po"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// brokenOutbox 在写某个事件时失败，其余事件照常落表
type brokenOutbox struct {
	*OutboxPublisher
	failOn string
}

func (p brokenOutbox) Publish(ctx context.Context, event shared.DomainEvent) error {
	if event.EventName() == p.failOn {
		return errors.New("outbox insert failed")
	}
	return p.OutboxPublisher.Publish(ctx, event)
}

func outboxService(db *gorm.DB, publisher shared.EventPublisher) *saleapp.ApplicationService {
	return saleapp.NewApplicationService(NewSaleRepository(db), NewUnitOfWork(db, noRetry()), publisher)
}

func saleRequest() saleapp.CreateSaleRequest {
	return saleapp.CreateSaleRequest{
		SaleNumber:   "SALE-001",
		SaleDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		CustomerID:   10,
		CustomerName: "John Doe",
		BranchID:     20,
		BranchName:   "Downtown",
		Items: []saleapp.SaleItemRequest{
			{ProductID: 1, ProductName: "Mouse", Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
		},
	}
}

func countRows(t *testing.T, db *gorm.DB) (sales, pending int64) {
	t.Helper()
	require.NoError(t, db.Model(&po.SalePO{}).Count(&sales).Error)
	counts, err := NewOutboxRepository(db).CountByStatus(context.Background())
	require.NoError(t, err)
	return sales, counts[po.EventStatusPending]
}

func TestOutboxPublisher_IsTransactional(t *testing.T) {
	publisher := NewOutboxPublisher(nil)
	assert.True(t, shared.PublishesInTransaction(publisher))
	assert.True(t, shared.PublishesInTransaction(brokenOutbox{OutboxPublisher: publisher}))
	assert.False(t, shared.PublishesInTransaction(shared.NewEventBus()))
}

func TestOutboxPublisher_CommitsEventsWithSale(t *testing.T) {
	db := newTestDB(t)
	svc := outboxService(db, NewOutboxPublisher(NewOutboxRepository(db)))
	ctx := context.Background()

	created, err := svc.CreateSale(ctx, saleRequest())
	require.NoError(t, err)
	sales, pending := countRows(t, db)
	assert.Equal(t, int64(1), sales)
	assert.Equal(t, int64(2), pending, "created + item added")

	_, err = svc.CancelSale(ctx, created.ID)
	require.NoError(t, err)
	_, pending = countRows(t, db)
	assert.Equal(t, int64(3), pending)
}

func TestOutboxPublisher_RollsBackWithSale(t *testing.T) {
	db := newTestDB(t)
	outbox := NewOutboxPublisher(NewOutboxRepository(db))
	ctx := context.Background()

	// 第二个事件写失败：第一行 outbox 和销售单一起回滚
	_, err := outboxService(db, brokenOutbox{OutboxPublisher: outbox, failOn: sale.EventSaleModified}).
		CreateSale(ctx, saleRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrPublishFailed)

	sales, pending := countRows(t, db)
	assert.Zero(t, sales)
	assert.Zero(t, pending)

	created, err := outboxService(db, outbox).CreateSale(ctx, saleRequest())
	require.NoError(t, err)

	_, err = outboxService(db, brokenOutbox{OutboxPublisher: outbox, failOn: sale.EventSaleCancelled}).
		CancelSale(ctx, created.ID)
	require.Error(t, err)

	stored, err := NewSaleRepository(db).GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCancelled(), "the cancel is rolled back with its event")
	_, pending = countRows(t, db)
	assert.Equal(t, int64(2), pending)
}
