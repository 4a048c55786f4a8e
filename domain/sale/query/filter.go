/*
Package query serves sale list requests: it filters, orders and paginates an
already-loaded collection of sales, always in that order.

Filter expression:

	clause ('&' clause)*      clause := field '=' value | totalamount ('>'|'<') N

	cancelled     true | false
	customername  X | X* | *X | *X*      (case-insensitive)
	salenumber    X | X* | *X | *X*      (case-insensitive)
	totalamount   N | >N | <N | N1-N2    (range is inclusive)

Order expression:

	key (',' key)*            key := field [asc|desc]
	fields: id, date, customername, totalamount

Unknown fields, malformed clauses and unparseable values are ignored.
*/
package query

import (
	"strings"

	"sales-service/domain/sale"
	"sales-service/domain/shared"

	"github.com/shopspring/decimal"
)

// Filter field names.
const (
	FieldCancelled    = "cancelled"
	FieldCustomerName = "customername"
	FieldSaleNumber   = "salenumber"
	FieldTotalAmount  = "totalamount"
)

// Filter is the conjunction of the recognized clauses of a filter expression.
type Filter struct {
	clauses []shared.Specification[*sale.Sale]
}

// ParseFilter never fails: clauses it cannot understand are dropped.
func ParseFilter(expr string) Filter {
	var f Filter
	for _, raw := range strings.Split(expr, "&") {
		if spec, ok := parseClause(strings.TrimSpace(raw)); ok {
			f.clauses = append(f.clauses, spec)
		}
	}
	return f
}

// Len reports how many clauses were recognized.
func (f Filter) Len() int { return len(f.clauses) }

// Specification returns the filter as a single specification.
func (f Filter) Specification() shared.Specification[*sale.Sale] {
	return shared.All(f.clauses...)
}

// Apply returns the sales that satisfy every clause, preserving input order.
func (f Filter) Apply(sales []*sale.Sale) []*sale.Sale {
	spec := f.Specification()
	result := make([]*sale.Sale, 0, len(sales))
	for _, s := range sales {
		if spec.IsSatisfiedBy(s) {
			result = append(result, s)
		}
	}
	return result
}

func parseClause(clause string) (shared.Specification[*sale.Sale], bool) {
	idx := strings.IndexAny(clause, "=<>")
	if idx <= 0 {
		return nil, false
	}

	field := strings.ToLower(strings.TrimSpace(clause[:idx]))
	value := strings.TrimSpace(clause[idx:])
	if value[0] == '=' {
		value = strings.TrimSpace(value[1:])
	}
	// "<" and ">" only make sense as a comparison on the amount.
	if clause[idx] != '=' && field != FieldTotalAmount {
		return nil, false
	}

	switch field {
	case FieldCancelled:
		switch strings.ToLower(value) {
		case "true":
			return sale.CancelledSpecification{Cancelled: true}, true
		case "false":
			return sale.CancelledSpecification{Cancelled: false}, true
		}
		return nil, false
	case FieldCustomerName:
		return sale.CustomerNameSpecification{Pattern: sale.ParseTextPattern(value)}, true
	case FieldSaleNumber:
		return sale.SaleNumberSpecification{Pattern: sale.ParseTextPattern(value)}, true
	case FieldTotalAmount:
		return parseAmount(value)
	}
	return nil, false
}

func parseAmount(value string) (shared.Specification[*sale.Sale], bool) {
	if value == "" {
		return nil, false
	}

	switch value[0] {
	case '>':
		n, err := decimal.NewFromString(strings.TrimSpace(value[1:]))
		if err != nil {
			return nil, false
		}
		return sale.TotalAmountSpecification{Comparison: sale.AmountGreaterThan, Low: n}, true
	case '<':
		n, err := decimal.NewFromString(strings.TrimSpace(value[1:]))
		if err != nil {
			return nil, false
		}
		return sale.TotalAmountSpecification{Comparison: sale.AmountLessThan, Low: n}, true
	}

	// A '-' after the first character separates a range; a leading one is a sign.
	if sep := strings.Index(value[1:], "-"); sep >= 0 {
		low, errLow := decimal.NewFromString(strings.TrimSpace(value[:sep+1]))
		high, errHigh := decimal.NewFromString(strings.TrimSpace(value[sep+2:]))
		if errLow != nil || errHigh != nil {
			return nil, false
		}
		return sale.TotalAmountSpecification{Comparison: sale.AmountBetween, Low: low, High: high}, true
	}

	n, err := decimal.NewFromString(value)
	if err != nil {
		return nil, false
	}
	return sale.TotalAmountSpecification{Comparison: sale.AmountEqual, Low: n}, true
}
