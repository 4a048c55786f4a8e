package sale

import (
	"strings"

	"sales-service/domain/shared"

	"github.com/shopspring/decimal"
)

// MatchMode selects how a TextPattern compares against a value.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchPrefix
	MatchSuffix
	MatchContains
)

// TextPattern is a case-insensitive string matcher.
type TextPattern struct {
	Mode  MatchMode
	Value string
}

// ParseTextPattern reads the X, X*, *X and *X* forms.
func ParseTextPattern(raw string) TextPattern {
	leading := strings.HasPrefix(raw, "*")
	trailing := len(raw) > 1 && strings.HasSuffix(raw, "*")
	value := strings.ToLower(strings.Trim(raw, "*"))

	switch {
	case leading && trailing:
		return TextPattern{Mode: MatchContains, Value: value}
	case trailing:
		return TextPattern{Mode: MatchPrefix, Value: value}
	case leading:
		return TextPattern{Mode: MatchSuffix, Value: value}
	default:
		return TextPattern{Mode: MatchExact, Value: value}
	}
}

func (p TextPattern) Matches(s string) bool {
	s = strings.ToLower(s)
	switch p.Mode {
	case MatchPrefix:
		return strings.HasPrefix(s, p.Value)
	case MatchSuffix:
		return strings.HasSuffix(s, p.Value)
	case MatchContains:
		return strings.Contains(s, p.Value)
	default:
		return s == p.Value
	}
}

// CancelledSpecification matches on the cancellation flag.
type CancelledSpecification struct {
	Cancelled bool
}

func (spec CancelledSpecification) IsSatisfiedBy(s *Sale) bool {
	return s.IsCancelled() == spec.Cancelled
}

// CustomerNameSpecification matches the customer name snapshot.
type CustomerNameSpecification struct {
	Pattern TextPattern
}

func (spec CustomerNameSpecification) IsSatisfiedBy(s *Sale) bool {
	return spec.Pattern.Matches(s.CustomerName())
}

// SaleNumberSpecification matches the sale number.
type SaleNumberSpecification struct {
	Pattern TextPattern
}

func (spec SaleNumberSpecification) IsSatisfiedBy(s *Sale) bool {
	return spec.Pattern.Matches(s.SaleNumber())
}

// AmountComparison is the comparison a TotalAmountSpecification applies.
type AmountComparison int

const (
	AmountEqual AmountComparison = iota
	AmountGreaterThan
	AmountLessThan
	AmountBetween
)

// TotalAmountSpecification compares the sale total. AmountBetween is inclusive
// on both ends and uses Low and High; the other comparisons use Low only.
type TotalAmountSpecification struct {
	Comparison AmountComparison
	Low        decimal.Decimal
	High       decimal.Decimal
}

func (spec TotalAmountSpecification) IsSatisfiedBy(s *Sale) bool {
	total := s.TotalAmount()
	switch spec.Comparison {
	case AmountGreaterThan:
		return total.GreaterThan(spec.Low)
	case AmountLessThan:
		return total.LessThan(spec.Low)
	case AmountBetween:
		return total.GreaterThanOrEqual(spec.Low) && total.LessThanOrEqual(spec.High)
	default:
		return total.Equal(spec.Low)
	}
}

var (
	_ shared.Specification[*Sale] = CancelledSpecification{}
	_ shared.Specification[*Sale] = CustomerNameSpecification{}
	_ shared.Specification[*Sale] = SaleNumberSpecification{}
	_ shared.Specification[*Sale] = TotalAmountSpecification{}
)
