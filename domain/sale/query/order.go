package query

import (
	"cmp"
	"slices"
	"strings"

	"sales-service/domain/sale"
)

// SortField is a field a sale list can be ordered by.
type SortField string

const (
	SortByID           SortField = "id"
	SortByDate         SortField = "date"
	SortByCustomerName SortField = "customername"
	SortByTotalAmount  SortField = "totalamount"
)

// SortKey is one criterion of an ordering.
type SortKey struct {
	Field      SortField
	Descending bool
}

// Ordering is a prioritized list of sort keys; the first key is primary.
type Ordering []SortKey

// DefaultOrdering sorts by ascending id.
var DefaultOrdering = Ordering{{Field: SortByID}}

// ParseOrdering reads "field [asc|desc], ...". Unknown fields are skipped; if
// nothing is recognized the DefaultOrdering is returned.
func ParseOrdering(expr string) Ordering {
	var keys Ordering
	for _, raw := range strings.Split(expr, ",") {
		parts := strings.Fields(raw)
		if len(parts) == 0 {
			continue
		}

		field := SortField(strings.ToLower(parts[0]))
		switch field {
		case SortByID, SortByDate, SortByCustomerName, SortByTotalAmount:
		default:
			continue
		}

		key := SortKey{Field: field}
		if len(parts) > 1 && strings.EqualFold(parts[1], "desc") {
			key.Descending = true
		}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return DefaultOrdering
	}
	return keys
}

// Sort orders sales in place with a stable multi-key sort.
func (o Ordering) Sort(sales []*sale.Sale) {
	slices.SortStableFunc(sales, o.compare)
}

func (o Ordering) compare(a, b *sale.Sale) int {
	for _, key := range o {
		c := compareBy(key.Field, a, b)
		if key.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareBy(field SortField, a, b *sale.Sale) int {
	switch field {
	case SortByID:
		return cmp.Compare(a.ID(), b.ID())
	case SortByDate:
		return a.SaleDate().Compare(b.SaleDate())
	case SortByCustomerName:
		return strings.Compare(strings.ToLower(a.CustomerName()), strings.ToLower(b.CustomerName()))
	case SortByTotalAmount:
		return a.TotalAmount().Cmp(b.TotalAmount())
	}
	return 0
}
