package pricing

import "github.com/shopspring/decimal"

// TierCharge is one row of a progressive fee breakdown.
type TierCharge struct {
	TierID   string          `json:"tierId"`
	Name     string          `json:"name"`
	Units    decimal.Decimal `json:"units"`
	Rate     decimal.Decimal `json:"rate"`
	Flat     bool            `json:"flat"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ProgressiveResult is the outcome of bracket pricing. Available is false when no tier table was loaded.
type ProgressiveResult struct {
	Available bool            `json:"available"`
	Breakdown []TierCharge    `json:"breakdown"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	TotalFee  decimal.Decimal `json:"totalFee"`
}

// NoTierAvailable returns the sentinel result used when a tier table is empty.
func NoTierAvailable() ProgressiveResult {
	return ProgressiveResult{Breakdown: []TierCharge{}, Subtotal: decimal.Zero, Discount: decimal.Zero, TotalFee: decimal.Zero}
}

// ProgressiveFee prices totalUnits tax-bracket style. The first tier charges its price once as a
// flat platform fee covering every unit up to its upper limit. Each later tier charges its rate for the
// slice of units between its fromQty and toQty. Units past the last tier's limit stay with the last tier.
func ProgressiveFee(totalUnits decimal.Decimal, tiers []Tier, discountPct decimal.Decimal) ProgressiveResult {
	if len(tiers) == 0 {
		return NoTierAvailable()
	}
	if totalUnits.IsNegative() {
		totalUnits = decimal.Zero
	}
	last := len(tiers) - 1

	base := tiers[0]
	baseUnits := totalUnits
	if base.ToQty != nil && last > 0 {
		baseUnits = decimal.Min(baseUnits, decimal.NewFromInt(*base.ToQty))
	}
	result := ProgressiveResult{
		Available: true,
		Breakdown: make([]TierCharge, 0, len(tiers)),
	}
	result.Breakdown = append(result.Breakdown, TierCharge{
		TierID:   base.ID,
		Name:     base.Name,
		Units:    baseUnits,
		Rate:     base.PricePerUnit,
		Flat:     true,
		Subtotal: base.PricePerUnit,
	})
	subtotal := base.PricePerUnit

	for i := 1; i <= last; i++ {
		t := tiers[i]
		units := totalUnits.Sub(decimal.NewFromInt(t.FromQty))
		if !units.IsPositive() {
			break
		}
		if t.ToQty != nil && i != last {
			units = decimal.Min(units, decimal.NewFromInt(*t.ToQty-t.FromQty))
		}
		charge := units.Mul(t.PricePerUnit)
		result.Breakdown = append(result.Breakdown, TierCharge{
			TierID:   t.ID,
			Name:     t.Name,
			Units:    units,
			Rate:     t.PricePerUnit,
			Subtotal: charge,
		})
		subtotal = subtotal.Add(charge)
	}

	result.Subtotal = subtotal
	result.TotalFee = ApplyDiscount(subtotal, discountPct, true)
	result.Discount = subtotal.Sub(result.TotalFee)
	return result
}
