package promotion

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// IsActive reports whether p is switched on and now falls inside its window.
// Both window bounds are inclusive.
func IsActive(p Promotion, now time.Time) bool {
	return p.IsActive && !now.Before(p.StartsAt) && !now.After(p.EndsAt)
}

// CalculateDiscount returns how much p takes off price at the given moment.
// Inactive promotions and unknown discount types give no discount, and the
// result always lies in [0, price].
func CalculateDiscount(p Promotion, price int64, now time.Time) int64 {
	if !IsActive(p, now) || price <= 0 || p.DiscountValue <= 0 {
		return 0
	}

	var discount int64
	switch p.DiscountType {
	case DiscountPercentage:
		discount = decimal.NewFromInt(price).
			Mul(decimal.NewFromInt(p.DiscountValue)).
			Div(hundred).
			Round(0).
			IntPart()
	case DiscountFixed:
		discount = p.DiscountValue
	default:
		return 0
	}

	return min(discount, price)
}

// ActiveForProduct picks the promotion that applies to a product priced at
// price. When several are active the one giving the largest discount wins,
// ties going to the lowest id.
func ActiveForProduct(promotions []Promotion, price int64, now time.Time) (Promotion, bool) {
	var (
		best         Promotion
		bestDiscount int64
		found        bool
	)

	for _, p := range promotions {
		if !IsActive(p, now) {
			continue
		}

		d := CalculateDiscount(p, price, now)
		if !found || d > bestDiscount || (d == bestDiscount && p.ID < best.ID) {
			best, bestDiscount, found = p, d, true
		}
	}

	return best, found
}
