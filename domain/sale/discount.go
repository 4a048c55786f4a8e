package sale

import "github.com/shopspring/decimal"

const (
	// MinItemQuantity is the smallest quantity a sale line may carry.
	MinItemQuantity = 1
	// MaxItemQuantity is the largest quantity of one product a sale may carry.
	MaxItemQuantity = 20
)

var (
	tenPercent    = decimal.RequireFromString("0.10")
	twentyPercent = decimal.RequireFromString("0.20")
)

// DiscountRate returns the discount fraction for a line of the given quantity:
// 0 for 1-3 units, 10% for 4-9 units, 20% for 10-20 units.
func DiscountRate(quantity int) decimal.Decimal {
	switch {
	case quantity >= 10 && quantity <= MaxItemQuantity:
		return twentyPercent
	case quantity >= 4:
		return tenPercent
	default:
		return decimal.Zero
	}
}

// Discount returns unitPrice × quantity × DiscountRate(quantity).
func Discount(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return gross(quantity, unitPrice).Mul(DiscountRate(quantity))
}

func gross(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
