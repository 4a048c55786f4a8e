package sale

import "github.com/shopspring/decimal"

// SaleItem is one product line owned by a Sale. Discount and total are derived
// from quantity and unit price and are always recomputed together.
type SaleItem struct {
	id          int64
	productID   int64
	productName string
	quantity    int
	unitPrice   decimal.Decimal
	discount    decimal.Decimal
	total       decimal.Decimal
}

// NewSaleItem builds a line and prices it. Quantity bounds are enforced by the
// Sale when the line is added, not here.
func NewSaleItem(productID int64, productName string, quantity int, unitPrice decimal.Decimal) SaleItem {
	item := SaleItem{}
	item.Update(productID, productName, quantity, unitPrice)
	return item
}

// Update replaces every field of the line and reprices it from scratch.
func (i *SaleItem) Update(productID int64, productName string, quantity int, unitPrice decimal.Decimal) {
	i.productID = productID
	i.productName = productName
	i.quantity = quantity
	i.unitPrice = unitPrice
	i.discount = Discount(quantity, unitPrice)
	i.total = gross(quantity, unitPrice).Sub(i.discount)
}

// ItemReconstructionDTO carries a persisted line back into the domain.
// ⚠️ Repository use only.
type ItemReconstructionDTO struct {
	ID          int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// RebuildItemFromDTO restores a persisted line, repricing it from quantity and unit price.
func RebuildItemFromDTO(dto ItemReconstructionDTO) SaleItem {
	item := NewSaleItem(dto.ProductID, dto.ProductName, dto.Quantity, dto.UnitPrice)
	item.id = dto.ID
	return item
}

func (i SaleItem) ID() int64                  { return i.id }
func (i SaleItem) ProductID() int64           { return i.productID }
func (i SaleItem) ProductName() string        { return i.productName }
func (i SaleItem) Quantity() int              { return i.quantity }
func (i SaleItem) UnitPrice() decimal.Decimal { return i.unitPrice }
func (i SaleItem) Discount() decimal.Decimal  { return i.discount }
func (i SaleItem) Total() decimal.Decimal     { return i.total }
