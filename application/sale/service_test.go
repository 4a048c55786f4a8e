package sale

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sales-service/domain/sale"
	"sales-service/domain/shared"
	"sales-service/infrastructure/persistence/memory"
	"sales-service/infrastructure/persistence/retry"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, event shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOn != "" && event.EventName() == p.failOn {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.EventName()
	}
	return names
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type commandLog struct {
	commands []string
	errs     []error
}

func (c *commandLog) ObserveCommand(command string, err error) {
	c.commands = append(c.commands, command)
	c.errs = append(c.errs, err)
}

type fixture struct {
	svc       *ApplicationService
	repo      *memory.SaleRepository
	publisher *recordingPublisher
	commands  *commandLog
}

func newFixture() *fixture {
	repo := memory.NewSaleRepository()
	publisher := &recordingPublisher{}
	commands := &commandLog{}
	cfg := retry.DefaultConfig
	cfg.InitialDelay = time.Millisecond
	return &fixture{
		svc:       NewApplicationService(repo, memory.NewUnitOfWork(cfg), publisher, WithObserver(commands)),
		repo:      repo,
		publisher: publisher,
		commands:  commands,
	}
}

func createRequest(items ...SaleItemRequest) CreateSaleRequest {
	return CreateSaleRequest{
		SaleNumber:   "SALE-100",
		SaleDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CustomerID:   1,
		CustomerName: "John Doe",
		BranchID:     2,
		BranchName:   "Downtown",
		Items:        items,
	}
}

func item(productID int64, quantity int, price string) SaleItemRequest {
	return SaleItemRequest{
		ProductID:   productID,
		ProductName: "Product",
		Quantity:    quantity,
		UnitPrice:   decimal.RequireFromString(price),
	}
}

func TestCreateSale(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.CreateSale(context.Background(), createRequest(item(1, 4, "10"), item(2, 10, "5")))
	require.NoError(t, err)

	assert.NotZero(t, resp.ID)
	require.Len(t, resp.Items, 2)
	assert.NotZero(t, resp.Items[0].ID)
	// 4*10*0.9 + 10*5*0.8
	assert.True(t, decimal.NewFromInt(76).Equal(resp.TotalAmount), resp.TotalAmount.String())
	assert.True(t, decimal.NewFromInt(4).Equal(resp.Items[0].Discount))

	assert.Equal(t, []string{sale.EventSaleCreated, sale.EventSaleModified, sale.EventSaleModified}, f.publisher.names())
	for _, e := range f.publisher.events {
		assert.Equal(t, "1", e.GetAggregateID())
	}
	assert.Equal(t, []string{"create_sale"}, f.commands.commands)
	assert.NoError(t, f.commands.errs[0])
}

func TestCreateSale_RejectsQuantityAboveLimit(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateSale(context.Background(), createRequest(item(1, 21, "10")))

	assert.ErrorIs(t, err, sale.ErrQuantityLimitExceeded)
	assert.ErrorIs(t, err, shared.ErrBusinessRule)
	assert.Empty(t, f.publisher.names())

	all, _ := f.repo.GetAll(context.Background())
	assert.Empty(t, all)
}

func TestCreateSale_PublishFailureKeepsSale(t *testing.T) {
	f := newFixture()
	f.publisher.failOn = sale.EventSaleModified

	_, err := f.svc.CreateSale(context.Background(), createRequest(item(1, 1, "10")))
	assert.ErrorIs(t, err, shared.ErrPublishFailed)
	assert.Equal(t, []string{sale.EventSaleCreated}, f.publisher.names(), "publishing stops at the first failure")

	all, _ := f.repo.GetAll(context.Background())
	assert.Len(t, all, 1, "the committed sale is not rolled back")
}

func TestCancelSale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.CreateSale(ctx, createRequest(item(1, 1, "10")))
	require.NoError(t, err)
	f.publisher.reset()

	resp, err := f.svc.CancelSale(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.Equal(t, []string{sale.EventSaleCancelled}, f.publisher.names())

	_, err = f.svc.CancelSale(ctx, created.ID)
	assert.ErrorIs(t, err, sale.ErrAlreadyCancelled)

	_, err = f.svc.CancelSale(ctx, 999)
	assert.ErrorIs(t, err, sale.ErrSaleNotFound)
}

func TestItemCommands(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.CreateSale(ctx, createRequest(item(1, 1, "100")))
	require.NoError(t, err)
	itemID := created.Items[0].ID
	f.publisher.reset()

	resp, err := f.svc.AddItem(ctx, created.ID, item(2, 5, "10"))
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.True(t, decimal.NewFromInt(145).Equal(resp.TotalAmount), resp.TotalAmount.String())

	resp, err = f.svc.UpdateItem(ctx, created.ID, itemID, item(1, 20, "100"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1645).Equal(resp.TotalAmount), resp.TotalAmount.String())

	_, err = f.svc.UpdateItem(ctx, created.ID, 999, item(1, 1, "1"))
	assert.ErrorIs(t, err, sale.ErrItemNotFound)

	resp, err = f.svc.RemoveItem(ctx, created.ID, itemID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, decimal.NewFromInt(45).Equal(resp.TotalAmount))

	_, err = f.svc.RemoveItem(ctx, created.ID, itemID)
	assert.ErrorIs(t, err, sale.ErrItemNotFound)

	resp, err = f.svc.ClearItems(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.TotalAmount.IsZero())

	assert.Equal(t, []string{
		sale.EventSaleModified,      // add
		sale.EventSaleModified,      // update
		sale.EventSaleItemCancelled, // remove
		sale.EventSaleItemCancelled, // clear
		sale.EventSaleModified,
	}, f.publisher.names())
}

func TestUpdateSale_ReconcilesItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.CreateSale(ctx, createRequest(item(1, 1, "10"), item(2, 1, "20")))
	require.NoError(t, err)
	keep := created.Items[1]

	req := UpdateSaleRequest{
		SaleNumber:   "SALE-100",
		SaleDate:     created.SaleDate,
		CustomerID:   1,
		CustomerName: "Jane Smith",
		BranchID:     2,
		BranchName:   "Uptown",
		Items: []SaleItemRequest{
			{ID: keep.ID, ProductID: 2, ProductName: "Product", Quantity: 4, UnitPrice: decimal.NewFromInt(20)},
			item(3, 1, "5"),
		},
	}
	resp, err := f.svc.UpdateSale(ctx, created.ID, req)
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", resp.CustomerName)
	assert.Equal(t, "Uptown", resp.BranchName)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, keep.ID, resp.Items[0].ID)
	assert.Equal(t, 4, resp.Items[0].Quantity)
	assert.Equal(t, int64(3), resp.Items[1].ProductID)
	// 4*20*0.9 + 5
	assert.True(t, decimal.NewFromInt(77).Equal(resp.TotalAmount), resp.TotalAmount.String())
}

func TestUpdateSale_ItemListSemantics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.CreateSale(ctx, createRequest(item(1, 1, "10")))
	require.NoError(t, err)

	base := UpdateSaleRequest{
		SaleNumber:   "SALE-100",
		CustomerID:   1,
		CustomerName: "John Doe",
		BranchID:     2,
		BranchName:   "Downtown",
	}

	resp, err := f.svc.UpdateSale(ctx, created.ID, base)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1, "omitted item list leaves items untouched")

	base.Items = []SaleItemRequest{}
	resp, err = f.svc.UpdateSale(ctx, created.ID, base)
	require.NoError(t, err)
	assert.Empty(t, resp.Items, "explicit empty list clears items")

	base.Items = []SaleItemRequest{item(1, 0, "10")}
	_, err = f.svc.UpdateSale(ctx, created.ID, base)
	assert.ErrorIs(t, err, sale.ErrInvalidQuantity)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	reloaded, err := f.svc.GetSale(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items, "failed update must not persist partial changes")
}

func TestDeleteSale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	created, err := f.svc.CreateSale(ctx, createRequest())
	require.NoError(t, err)
	f.publisher.reset()

	require.NoError(t, f.svc.DeleteSale(ctx, created.ID))
	assert.Empty(t, f.publisher.names())

	_, err = f.svc.GetSale(ctx, created.ID)
	assert.ErrorIs(t, err, sale.ErrSaleNotFound)
	assert.ErrorIs(t, f.svc.DeleteSale(ctx, created.ID), sale.ErrSaleNotFound)
}

func TestListSales(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i, name := range []string{"Mary Johnson", "John Doe", "John Brown"} {
		req := createRequest(item(1, 1, decimal.NewFromInt(int64(1000*(i+1))).String()))
		req.CustomerName = name
		_, err := f.svc.CreateSale(ctx, req)
		require.NoError(t, err)
	}

	resp, err := f.svc.ListSales(ctx, ListSalesQuery{Page: 1, Size: 1, Order: "totalamount desc", Filter: "customername=john*"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "John Brown", resp.Items[0].CustomerName)

	resp, err = f.svc.ListSales(ctx, ListSalesQuery{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 3, resp.TotalItems)
}

func TestRegisterEventHandlers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := shared.NewEventBus()
	require.NoError(t, RegisterEventHandlers(bus, zap.New(core)))

	repo := memory.NewSaleRepository()
	svc := NewApplicationService(repo, memory.NewUnitOfWork(retry.DefaultConfig), bus)
	ctx := context.Background()

	created, err := svc.CreateSale(ctx, createRequest(item(1, 2, "50")))
	require.NoError(t, err)
	_, err = svc.CancelSale(ctx, created.ID)
	require.NoError(t, err)

	createdLogs := logs.FilterMessage("Sale created event received").All()
	require.Len(t, createdLogs, 1)
	assert.Equal(t, "SALE-100", createdLogs[0].ContextMap()["sale_number"])
	assert.Equal(t, 1, logs.FilterMessage("Sale cancelled event received").Len())

	err = NewSaleCreatedHandler(zap.NewNop()).Handle(ctx, sale.SaleModified{SaleID: 1})
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	repo := memory.NewSaleRepository()
	ctx := context.Background()

	n, err := Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Len(t, all[1].Items(), 3)
	assert.True(t, all[5].IsCancelled())
	assert.Empty(t, all[5].Items())
	assert.True(t, decimal.RequireFromString("2330.50").Equal(all[1].TotalAmount()), all[1].TotalAmount().String())

	n, err = Seed(ctx, repo)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding is skipped when sales exist")
}

type txKey struct{}

// markingUnitOfWork 在 fn 的 ctx 上打标记，模拟携带事务的 ctx
type markingUnitOfWork struct {
	shared.UnitOfWork
}

func (u markingUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.UnitOfWork.Execute(ctx, func(ctx context.Context) error {
		return fn(context.WithValue(ctx, txKey{}, true))
	})
}

type stagingPublisher struct {
	recordingPublisher
	inTx []bool
}

func (p *stagingPublisher) InTransaction() bool { return true }

func (p *stagingPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	inTx, _ := ctx.Value(txKey{}).(bool)
	p.inTx = append(p.inTx, inTx)
	return p.recordingPublisher.Publish(ctx, event)
}

func TestTransactionalPublisher_PublishesInsideUnitOfWork(t *testing.T) {
	publisher := &stagingPublisher{}
	uow := markingUnitOfWork{memory.NewUnitOfWork(retry.Config{MaxAttempts: 1})}
	svc := NewApplicationService(memory.NewSaleRepository(), uow, publisher)
	ctx := context.Background()

	created, err := svc.CreateSale(ctx, createRequest(item(1, 1, "10")))
	require.NoError(t, err)
	_, err = svc.CancelSale(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{sale.EventSaleCreated, sale.EventSaleModified, sale.EventSaleCancelled}, publisher.names())
	assert.Equal(t, []bool{true, true, true}, publisher.inTx)
}

func TestTransactionalPublisher_FailureIsNotReportedAsPublishFailure(t *testing.T) {
	publisher := &stagingPublisher{}
	publisher.failOn = sale.EventSaleCreated
	uow := markingUnitOfWork{memory.NewUnitOfWork(retry.Config{MaxAttempts: 1})}
	svc := NewApplicationService(memory.NewSaleRepository(), uow, publisher)

	_, err := svc.CreateSale(context.Background(), createRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrPublishFailed, "the outbox write failed with the sale, nothing was committed")
	assert.ErrorContains(t, err, sale.EventSaleCreated)
}
