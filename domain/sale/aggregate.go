/*
Package sale Sale subdomain - core of the sales service

A Sale is the consistency boundary for a customer purchase at a branch:
  - it owns its SaleItem lines exclusively
  - it keeps TotalAmount equal to the sum of line totals after every mutation
  - it enforces the per-line quantity bounds
  - it records a domain event for every mutation; callers read the events after
    persistence, publish them in order and then clear the log
*/
package sale

import (
	"time"

	"sales-service/domain/shared"

	"github.com/shopspring/decimal"
)

// Sale aggregate root
type Sale struct {
	id           int64
	saleNumber   string
	saleDate     time.Time
	customerID   int64
	customerName string
	branchID     int64
	branchName   string
	items        []SaleItem
	totalAmount  decimal.Decimal
	cancelled    bool
	version      int // Optimistic lock version, managed by the repository
	createdAt    time.Time
	updatedAt    time.Time

	events []shared.DomainEvent
}

// Properties are the caller-supplied header fields of a sale. Customer and branch
// are denormalized references: an external id plus a name snapshot.
type Properties struct {
	SaleNumber   string
	SaleDate     time.Time
	CustomerID   int64
	CustomerName string
	BranchID     int64
	BranchName   string
}

// ============================================================================
// Factory Methods
// ============================================================================

// NewSale creates a sale from its header and an initial (possibly empty) item list
// and records a SaleCreated event.
func NewSale(props Properties, items []SaleItem) *Sale {
	now := time.Now().UTC()
	s := &Sale{
		items:     append([]SaleItem(nil), items...),
		createdAt: now,
		updatedAt: now,
	}
	s.applyProperties(props)
	s.recalculateTotal()

	s.record(SaleCreated{
		SaleID:       s.id,
		OccurredAt:   now,
		SaleSnapshot: s.snapshot(),
	})
	return s
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

// ReconstructionDTO restores a persisted sale.
// ⚠️ Note: only repository implementations should build sales this way
type ReconstructionDTO struct {
	ID           int64
	SaleNumber   string
	SaleDate     time.Time
	CustomerID   int64
	CustomerName string
	BranchID     int64
	BranchName   string
	Items        []SaleItem
	Cancelled    bool
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RebuildFromDTO restores a sale without recording events. The total is recomputed
// from the lines so a stored total can never disagree with them.
func RebuildFromDTO(dto ReconstructionDTO) *Sale {
	s := &Sale{
		id:           dto.ID,
		saleNumber:   dto.SaleNumber,
		saleDate:     dto.SaleDate,
		customerID:   dto.CustomerID,
		customerName: dto.CustomerName,
		branchID:     dto.BranchID,
		branchName:   dto.BranchName,
		items:        append([]SaleItem(nil), dto.Items...),
		cancelled:    dto.Cancelled,
		version:      dto.Version,
		createdAt:    dto.CreatedAt,
		updatedAt:    dto.UpdatedAt,
	}
	s.recalculateTotal()
	return s
}

// ============================================================================
// Item Management
// ============================================================================
//
// Lines are only reachable through the aggregate root. Every method below leaves
// totalAmount == Σ item.total. Mutations stay legal on a cancelled sale.

// AddItem appends a priced line.
// Errors: ErrInvalidQuantity (quantity < 1), ErrQuantityLimitExceeded (quantity > 20),
// ErrInvalidUnitPrice (negative price).
func (s *Sale) AddItem(productID int64, productName string, quantity int, unitPrice decimal.Decimal) error {
	if err := validateLine(productName, quantity, unitPrice); err != nil {
		return err
	}

	s.items = append(s.items, NewSaleItem(productID, productName, quantity, unitPrice))
	s.recalculateTotal()
	s.recordModified(ModificationItemAdded)
	return nil
}

// UpdateItem replaces the line identified by itemID in place.
// Errors: ErrItemNotFound plus the AddItem validation errors.
func (s *Sale) UpdateItem(itemID, productID int64, productName string, quantity int, unitPrice decimal.Decimal) error {
	idx := s.indexOfItem(itemID)
	if idx < 0 {
		return NewItemNotFoundError(itemID)
	}
	if err := validateLine(productName, quantity, unitPrice); err != nil {
		return err
	}

	s.items[idx].Update(productID, productName, quantity, unitPrice)
	s.recalculateTotal()
	s.recordModified(ModificationItemUpdated)
	return nil
}

// RemoveItem drops the line identified by itemID. An unknown id is a no-op and
// reports false.
func (s *Sale) RemoveItem(itemID int64) bool {
	idx := s.indexOfItem(itemID)
	if idx < 0 {
		return false
	}

	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.recalculateTotal()
	s.touch()
	s.record(newItemCancelled(s.id, removed, CancellationItemRemoved, s.updatedAt))
	return true
}

// ClearItems records one SaleItemCancelled per line, empties the sale and then
// records a single SaleModified tagged "All items cleared".
func (s *Sale) ClearItems() {
	s.touch()
	for _, item := range s.items {
		s.record(newItemCancelled(s.id, item, CancellationItemCleared, s.updatedAt))
	}
	s.items = nil
	s.totalAmount = decimal.Zero
	s.recordModified(ModificationItemsCleared)
}

// ============================================================================
// Sale Behaviour
// ============================================================================

// UpdateSale overwrites the header fields; lines are untouched.
func (s *Sale) UpdateSale(props Properties) {
	s.applyProperties(props)
	s.recordModified(ModificationPropertiesUpdated)
}

// Cancel marks the sale as cancelled. Cancellation is terminal.
// Errors: ErrAlreadyCancelled.
func (s *Sale) Cancel() error {
	if s.cancelled {
		return NewAlreadyCancelledError(s.saleNumber)
	}

	s.cancelled = true
	s.touch()
	s.record(SaleCancelled{
		SaleID:       s.id,
		OccurredAt:   s.updatedAt,
		CancelledAt:  s.updatedAt,
		SaleSnapshot: s.snapshot(),
	})
	return nil
}

// ============================================================================
// Persistence Hooks - For Repository Layer Use Only
// ============================================================================

// AssignIdentity stores the ids generated by the store. itemIDs is aligned with
// Items(); lines that already have an id keep it. Events recorded before the sale
// had an id are stamped with it so they can be published.
func (s *Sale) AssignIdentity(id int64, itemIDs []int64) {
	s.id = id
	for i := range s.items {
		if i < len(itemIDs) && s.items[i].id == 0 {
			s.items[i].id = itemIDs[i]
		}
	}
	for i, event := range s.events {
		if event.GetAggregateID() != "" {
			continue
		}
		if binder, ok := event.(identityBinder); ok {
			s.events[i] = binder.withSaleID(id)
		}
	}
}

// IncrementVersionForSave is called by the repository after a successful write.
func (s *Sale) IncrementVersionForSave() {
	s.version++
}

// ============================================================================
// Domain Event Management
// ============================================================================

// DomainEvents returns a copy of the pending events in the order they were recorded.
func (s *Sale) DomainEvents() []shared.DomainEvent {
	events := make([]shared.DomainEvent, len(s.events))
	copy(events, s.events)
	return events
}

// ClearDomainEvents empties the event log and nothing else.
func (s *Sale) ClearDomainEvents() {
	s.events = nil
}

// PullEvents drains the log, handing ownership of the events to the caller.
func (s *Sale) PullEvents() []shared.DomainEvent {
	events := s.events
	s.events = nil
	return events
}

// ============================================================================
// Getters
// ============================================================================

func (s *Sale) ID() int64                    { return s.id }
func (s *Sale) SaleNumber() string           { return s.saleNumber }
func (s *Sale) SaleDate() time.Time          { return s.saleDate }
func (s *Sale) CustomerID() int64            { return s.customerID }
func (s *Sale) CustomerName() string         { return s.customerName }
func (s *Sale) BranchID() int64              { return s.branchID }
func (s *Sale) BranchName() string           { return s.branchName }
func (s *Sale) TotalAmount() decimal.Decimal { return s.totalAmount }
func (s *Sale) IsCancelled() bool            { return s.cancelled }
func (s *Sale) Version() int                 { return s.version }
func (s *Sale) CreatedAt() time.Time         { return s.createdAt }
func (s *Sale) UpdatedAt() time.Time         { return s.updatedAt }

// Items returns a copy of the lines.
func (s *Sale) Items() []SaleItem {
	items := make([]SaleItem, len(s.items))
	copy(items, s.items)
	return items
}

// Item looks a line up by id.
func (s *Sale) Item(itemID int64) (SaleItem, bool) {
	idx := s.indexOfItem(itemID)
	if idx < 0 {
		return SaleItem{}, false
	}
	return s.items[idx], true
}

// ============================================================================
// internals
// ============================================================================

func validateLine(productName string, quantity int, unitPrice decimal.Decimal) error {
	if quantity < MinItemQuantity {
		return NewInvalidQuantityError(quantity)
	}
	if quantity > MaxItemQuantity {
		return NewQuantityLimitExceededError(productName, quantity)
	}
	if unitPrice.IsNegative() {
		return NewInvalidUnitPriceError(productName)
	}
	return nil
}

// indexOfItem only matches persisted lines: id 0 means "not yet assigned".
func (s *Sale) indexOfItem(itemID int64) int {
	if itemID <= 0 {
		return -1
	}
	for i := range s.items {
		if s.items[i].id == itemID {
			return i
		}
	}
	return -1
}

func (s *Sale) applyProperties(props Properties) {
	s.saleNumber = props.SaleNumber
	s.saleDate = props.SaleDate
	s.customerID = props.CustomerID
	s.customerName = props.CustomerName
	s.branchID = props.BranchID
	s.branchName = props.BranchName
}

func (s *Sale) recalculateTotal() {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.total)
	}
	s.totalAmount = total
}

func (s *Sale) touch() {
	s.updatedAt = time.Now().UTC()
}

func (s *Sale) snapshot() SaleSnapshot {
	return SaleSnapshot{
		SaleNumber:   s.saleNumber,
		SaleDate:     s.saleDate,
		CustomerID:   s.customerID,
		CustomerName: s.customerName,
		BranchID:     s.branchID,
		BranchName:   s.branchName,
		TotalAmount:  s.totalAmount,
		ItemsCount:   len(s.items),
	}
}

func (s *Sale) recordModified(modificationType string) {
	s.touch()
	s.record(SaleModified{
		SaleID:           s.id,
		OccurredAt:       s.updatedAt,
		ModificationType: modificationType,
		SaleSnapshot:     s.snapshot(),
	})
}

func (s *Sale) record(event shared.DomainEvent) {
	s.events = append(s.events, event)
}

// Compile-time check that Sale implements AggregateRoot interface
var _ shared.AggregateRoot = (*Sale)(nil)
