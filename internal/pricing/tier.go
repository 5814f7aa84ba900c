package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tier is one quantity range of a tier table. A nil ToQty marks the open-ended top tier.
type Tier struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	FromQty      int64           `json:"fromQty"`
	ToQty        *int64          `json:"toQty"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

// Boundary selects whether a tier's fromQty is itself part of the tier.
type Boundary int

const (
	// BoundaryBoth treats a tier as [fromQty, toQty].
	BoundaryBoth Boundary = iota
	// BoundaryUpperOnly treats a tier as (fromQty, toQty]; fromQty belongs to the previous tier.
	BoundaryUpperOnly
)

// String implements fmt.Stringer.
func (b Boundary) String() string {
	if b == BoundaryUpperOnly {
		return "upperOnly"
	}
	return "both"
}

// Bounded reports whether the tier has a finite upper limit.
func (t Tier) Bounded() bool { return t.ToQty != nil }

// lowest is the smallest unit index the tier can hold.
func (t Tier) lowest(b Boundary) int64 {
	if b == BoundaryUpperOnly {
		return t.FromQty + 1
	}
	return t.FromQty
}

// highest is the largest unit index the tier can hold.
func (t Tier) highest() int64 {
	if !t.Bounded() {
		return math.MaxInt64
	}
	return *t.ToQty
}

func (t Tier) contains(unit int64, b Boundary) bool {
	return unit >= t.lowest(b) && unit <= t.highest()
}

// TierCost prices quantity units against tiers using per-unit lookup: every unit is charged
// the price of the first tier (in slice order) containing it. Units no tier contains cost nothing.
//
// The walk advances a whole run of units at a time, so the result matches the per-unit
// definition without iterating each unit.
func TierCost(quantity int64, tiers []Tier, boundary Boundary) decimal.Decimal {
	total := decimal.Zero
	if quantity <= 0 || len(tiers) == 0 {
		return total
	}
	unit := int64(1)
	for unit <= quantity {
		idx := firstMatch(tiers, unit, boundary)
		if idx < 0 {
			next := nextStart(tiers, len(tiers), unit, boundary)
			if next < 0 || next > quantity {
				break
			}
			unit = next
			continue
		}
		end := quantity
		if hi := tiers[idx].highest(); hi < end {
			end = hi
		}
		// an earlier-listed tier that starts inside the run takes over from its start
		if next := nextStart(tiers, idx, unit, boundary); next > 0 && next-1 < end {
			end = next - 1
		}
		count := end - unit + 1
		total = total.Add(tiers[idx].PricePerUnit.Mul(decimal.NewFromInt(count)))
		if end == math.MaxInt64 {
			break
		}
		unit = end + 1
	}
	return total
}

// AnnualTierCost prices quantity at the tier table's native period and annualizes the result.
func AnnualTierCost(quantity int64, tiers []Tier, boundary Boundary, period Period) decimal.Decimal {
	return Annualize(TierCost(quantity, tiers, boundary), period)
}

// RateFor returns the tier a quantity falls in, for volume-tier lookups.
func RateFor(quantity int64, tiers []Tier, boundary Boundary) (Tier, bool) {
	idx := firstMatch(tiers, quantity, boundary)
	if idx < 0 {
		return Tier{}, false
	}
	return tiers[idx], true
}

func firstMatch(tiers []Tier, unit int64, b Boundary) int {
	for i := range tiers {
		if tiers[i].contains(unit, b) {
			return i
		}
	}
	return -1
}

// nextStart returns the smallest starting unit greater than unit among tiers[:limit], or -1.
func nextStart(tiers []Tier, limit int, unit int64, b Boundary) int64 {
	next := int64(-1)
	for i := 0; i < limit; i++ {
		lo := tiers[i].lowest(b)
		if lo <= unit || lo > tiers[i].highest() {
			continue
		}
		if next < 0 || lo < next {
			next = lo
		}
	}
	return next
}
