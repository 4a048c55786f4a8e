package sale

import (
	"strconv"
	"time"

	"sales-service/domain/shared"

	"github.com/shopspring/decimal"
)

// Event names as they appear on the wire.
const (
	EventSaleCreated       = "sale.created"
	EventSaleModified      = "sale.modified"
	EventSaleCancelled     = "sale.cancelled"
	EventSaleItemCancelled = "sale.item_cancelled"
)

// Modification and cancellation tags carried by events.
const (
	ModificationItemAdded         = "Item added"
	ModificationItemUpdated       = "Item updated"
	ModificationPropertiesUpdated = "Sale properties updated"
	ModificationItemsCleared      = "All items cleared"

	CancellationItemRemoved = "Item removed"
	CancellationItemCleared = "Item cleared"
)

// SaleSnapshot is the by-value copy of the sale header taken when an event is recorded.
type SaleSnapshot struct {
	SaleNumber   string          `json:"sale_number"`
	SaleDate     time.Time       `json:"sale_date"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	BranchID     int64           `json:"branch_id"`
	BranchName   string          `json:"branch_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemsCount   int             `json:"items_count"`
}

type SaleCreated struct {
	SaleID     int64     `json:"sale_id"`
	OccurredAt time.Time `json:"occurred_at"`
	SaleSnapshot
}

func (e SaleCreated) EventName() string      { return EventSaleCreated }
func (e SaleCreated) OccurredOn() time.Time  { return e.OccurredAt }
func (e SaleCreated) GetAggregateID() string { return aggregateID(e.SaleID) }

func (e SaleCreated) withSaleID(id int64) shared.DomainEvent {
	e.SaleID = id
	return e
}

type SaleModified struct {
	SaleID           int64     `json:"sale_id"`
	OccurredAt       time.Time `json:"occurred_at"`
	ModificationType string    `json:"modification_type"`
	SaleSnapshot
}

func (e SaleModified) EventName() string      { return EventSaleModified }
func (e SaleModified) OccurredOn() time.Time  { return e.OccurredAt }
func (e SaleModified) GetAggregateID() string { return aggregateID(e.SaleID) }

func (e SaleModified) withSaleID(id int64) shared.DomainEvent {
	e.SaleID = id
	return e
}

type SaleCancelled struct {
	SaleID      int64     `json:"sale_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	CancelledAt time.Time `json:"cancelled_at"`
	SaleSnapshot
}

func (e SaleCancelled) EventName() string      { return EventSaleCancelled }
func (e SaleCancelled) OccurredOn() time.Time  { return e.OccurredAt }
func (e SaleCancelled) GetAggregateID() string { return aggregateID(e.SaleID) }

func (e SaleCancelled) withSaleID(id int64) shared.DomainEvent {
	e.SaleID = id
	return e
}

type SaleItemCancelled struct {
	SaleID             int64           `json:"sale_id"`
	OccurredAt         time.Time       `json:"occurred_at"`
	ItemID             int64           `json:"item_id"`
	ProductID          int64           `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Total              decimal.Decimal `json:"total"`
	CancellationReason string          `json:"cancellation_reason"`
}

func (e SaleItemCancelled) EventName() string      { return EventSaleItemCancelled }
func (e SaleItemCancelled) OccurredOn() time.Time  { return e.OccurredAt }
func (e SaleItemCancelled) GetAggregateID() string { return aggregateID(e.SaleID) }

func (e SaleItemCancelled) withSaleID(id int64) shared.DomainEvent {
	e.SaleID = id
	return e
}

// identityBinder is implemented by every sale event so a sale id assigned at
// persistence time can be stamped on events recorded before it existed.
type identityBinder interface {
	withSaleID(id int64) shared.DomainEvent
}

// aggregateID is empty until persistence has assigned an id, which makes
// shared.ValidateEvent reject events from an unsaved sale.
func aggregateID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func newItemCancelled(saleID int64, item SaleItem, reason string, at time.Time) SaleItemCancelled {
	return SaleItemCancelled{
		SaleID:             saleID,
		OccurredAt:         at,
		ItemID:             item.id,
		ProductID:          item.productID,
		ProductName:        item.productName,
		Quantity:           item.quantity,
		UnitPrice:          item.unitPrice,
		Total:              item.total,
		CancellationReason: reason,
	}
}
