package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ApplyDiscount reduces cost by pct percent when enabled. pct is clamped to [0, 100].
func ApplyDiscount(cost, pct decimal.Decimal, enabled bool) decimal.Decimal {
	if !enabled {
		return cost
	}
	pct = ClampPercent(pct)
	return cost.Mul(decimal.NewFromInt(1).Sub(pct.Div(hundred)))
}

// ClampPercent bounds a percentage to [0, 100].
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
