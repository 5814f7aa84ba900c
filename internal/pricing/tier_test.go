package pricing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func qty(v int64) *int64 { return &v }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, price(want).Equal(got), "expected %s, got %s", want, got.String())
}

func storeConnectionTiers() []Tier {
	return []Tier{
		{ID: "sc-0", Name: "Included", FromQty: 0, ToQty: qty(5), PricePerUnit: price("0")},
		{ID: "sc-1", Name: "Standard", FromQty: 6, ToQty: qty(50), PricePerUnit: price("30")},
		{ID: "sc-2", Name: "Volume", FromQty: 51, ToQty: qty(100), PricePerUnit: price("25")},
		{ID: "sc-3", Name: "Enterprise", FromQty: 101, PricePerUnit: price("20")},
	}
}

func bracketTiers() []Tier {
	return []Tier{
		{ID: "b-0", Name: "Platform", FromQty: 0, ToQty: qty(1000), PricePerUnit: price("500")},
		{ID: "b-1", Name: "Growth", FromQty: 1000, ToQty: qty(5000), PricePerUnit: price("0.10")},
		{ID: "b-2", Name: "Scale", FromQty: 5000, PricePerUnit: price("0.05")},
	}
}

// perUnitReference is the literal definition: each unit takes the first tier containing it.
func perUnitReference(quantity int64, tiers []Tier, b Boundary) decimal.Decimal {
	total := decimal.Zero
	for unit := int64(1); unit <= quantity; unit++ {
		for _, tier := range tiers {
			if tier.contains(unit, b) {
				total = total.Add(tier.PricePerUnit)
				break
			}
		}
	}
	return total
}

// closedForm sums price x units-in-tier for a contiguous table.
func closedForm(quantity int64, tiers []Tier, b Boundary) decimal.Decimal {
	total := decimal.Zero
	for _, tier := range tiers {
		lo := tier.lowest(b)
		if lo < 1 {
			lo = 1
		}
		hi := tier.highest()
		if hi > quantity {
			hi = quantity
		}
		if hi < lo {
			continue
		}
		total = total.Add(tier.PricePerUnit.Mul(decimal.NewFromInt(hi - lo + 1)))
	}
	return total
}

func TestTierCostStoreConnectionExample(t *testing.T) {
	monthly := TierCost(60, storeConnectionTiers(), BoundaryBoth)
	requireAmount(t, "1600", monthly)
	requireAmount(t, "19200", AnnualTierCost(60, storeConnectionTiers(), BoundaryBoth, Monthly))
}

func TestTierCostZeroQuantity(t *testing.T) {
	for _, tiers := range [][]Tier{nil, storeConnectionTiers(), bracketTiers()} {
		requireAmount(t, "0", TierCost(0, tiers, BoundaryBoth))
		requireAmount(t, "0", TierCost(0, tiers, BoundaryUpperOnly))
	}
	requireAmount(t, "0", TierCost(-3, storeConnectionTiers(), BoundaryBoth))
}

func TestTierCostMatchesClosedForm(t *testing.T) {
	upperOnly := []Tier{
		{FromQty: 0, ToQty: qty(10), PricePerUnit: price("4")},
		{FromQty: 10, ToQty: qty(40), PricePerUnit: price("3.5")},
		{FromQty: 40, PricePerUnit: price("1.25")},
	}
	for q := int64(0); q <= 250; q++ {
		requireAmount(t, closedForm(q, storeConnectionTiers(), BoundaryBoth).String(), TierCost(q, storeConnectionTiers(), BoundaryBoth))
		requireAmount(t, closedForm(q, upperOnly, BoundaryUpperOnly).String(), TierCost(q, upperOnly, BoundaryUpperOnly))
	}
}

func TestTierCostMatchesPerUnitDefinitionOnMalformedTables(t *testing.T) {
	tables := map[string][]Tier{
		"gap": {
			{FromQty: 0, ToQty: qty(5), PricePerUnit: price("1")},
			{FromQty: 10, ToQty: qty(20), PricePerUnit: price("2")},
			{FromQty: 30, PricePerUnit: price("3")},
		},
		"overlap": {
			{FromQty: 0, ToQty: qty(20), PricePerUnit: price("5")},
			{FromQty: 10, ToQty: qty(30), PricePerUnit: price("7")},
		},
		"unsorted": {
			{FromQty: 50, PricePerUnit: price("1")},
			{FromQty: 0, ToQty: qty(60), PricePerUnit: price("9")},
			{FromQty: 20, ToQty: qty(25), PricePerUnit: price("100")},
		},
		"nested": {
			{FromQty: 40, ToQty: qty(45), PricePerUnit: price("11")},
			{FromQty: 0, PricePerUnit: price("2")},
		},
	}
	for name, tiers := range tables {
		for _, b := range []Boundary{BoundaryBoth, BoundaryUpperOnly} {
			for q := int64(0); q <= 120; q++ {
				want := perUnitReference(q, tiers, b)
				got := TierCost(q, tiers, b)
				require.Truef(t, want.Equal(got), "%s/%s q=%d: want %s got %s", name, b, q, want, got)
			}
		}
	}
}

func TestTierCostBoundaryConventions(t *testing.T) {
	tiers := []Tier{
		{FromQty: 0, ToQty: qty(10), PricePerUnit: price("1")},
		{FromQty: 10, PricePerUnit: price("2")},
	}
	// unit 10 sits in the first tier either way; both conventions only differ at fromQty of later tiers
	requireAmount(t, "10", TierCost(10, tiers, BoundaryBoth))
	requireAmount(t, "10", TierCost(10, tiers, BoundaryUpperOnly))
	requireAmount(t, "12", TierCost(11, tiers, BoundaryUpperOnly))
}

func TestTierCostSilentlyUndercountsGaps(t *testing.T) {
	tiers := []Tier{
		{FromQty: 0, ToQty: qty(5), PricePerUnit: price("10")},
		{FromQty: 11, PricePerUnit: price("10")},
	}
	requireAmount(t, "100", TierCost(15, tiers, BoundaryBoth))
}

func TestRateFor(t *testing.T) {
	tier, ok := RateFor(60, storeConnectionTiers(), BoundaryBoth)
	require.True(t, ok)
	require.Equal(t, "sc-2", tier.ID)

	tier, ok = RateFor(5000, bracketTiers(), BoundaryUpperOnly)
	require.True(t, ok)
	require.Equal(t, "b-1", tier.ID)

	_, ok = RateFor(3, []Tier{{FromQty: 10, PricePerUnit: price("1")}}, BoundaryBoth)
	require.False(t, ok)
}

func TestTierCostAtMaximumQuantity(t *testing.T) {
	tiers := []Tier{
		{ID: "free", FromQty: 0, ToQty: qty(5), PricePerUnit: price("0")},
		{ID: "open", FromQty: 6, PricePerUnit: price("20")},
	}
	done := make(chan decimal.Decimal, 1)
	go func() { done <- TierCost(math.MaxInt64, tiers, BoundaryBoth) }()

	select {
	case got := <-done:
		want := decimal.NewFromInt(math.MaxInt64 - 5).Mul(price("20"))
		requireAmount(t, want.String(), got)
	case <-time.After(2 * time.Second):
		t.Fatal("TierCost did not return for the largest quantity")
	}
}

func TestTierBounded(t *testing.T) {
	tiers := storeConnectionTiers()
	require.True(t, tiers[0].Bounded())
	require.False(t, tiers[len(tiers)-1].Bounded())
}

func TestAnnualize(t *testing.T) {
	requireAmount(t, "1200", Annualize(price("100"), Monthly))
	requireAmount(t, "400", Annualize(price("100"), Quarterly))
	requireAmount(t, "100", Annualize(price("100"), Annual))
	requireAmount(t, "25", PerPeriod(price("100"), Quarterly))

	_, err := ParsePeriod("weekly")
	require.Error(t, err)
	p, err := ParsePeriod(" Quarterly ")
	require.NoError(t, err)
	require.Equal(t, Quarterly, p)
}

func TestValidateTiers(t *testing.T) {
	require.NoError(t, ValidateTiers(storeConnectionTiers(), BoundaryBoth))
	require.NoError(t, ValidateTiers(bracketTiers(), BoundaryUpperOnly))

	cases := []struct {
		name     string
		tiers    []Tier
		boundary Boundary
		want     error
		index    int
	}{
		{"empty", nil, BoundaryBoth, ErrNoTiers, -1},
		{"gap", []Tier{{FromQty: 0, ToQty: qty(5)}, {FromQty: 7}}, BoundaryBoth, ErrTierGap, 1},
		{"overlap", []Tier{{FromQty: 0, ToQty: qty(5)}, {FromQty: 5}}, BoundaryBoth, ErrTierOverlap, 1},
		{"upper only contiguous needs shared edge", []Tier{{FromQty: 0, ToQty: qty(5)}, {FromQty: 6}}, BoundaryUpperOnly, ErrTierGap, 1},
		{"unsorted", []Tier{{FromQty: 10, ToQty: qty(20)}, {FromQty: 0}}, BoundaryBoth, ErrTierGap, 0},
		{"descending", []Tier{{FromQty: 0, ToQty: qty(20)}, {FromQty: 0}}, BoundaryBoth, ErrTierOrder, 1},
		{"open middle", []Tier{{FromQty: 0}, {FromQty: 10}}, BoundaryBoth, ErrOpenTierNotLast, 0},
		{"bounded top", []Tier{{FromQty: 0, ToQty: qty(5)}, {FromQty: 6, ToQty: qty(9)}}, BoundaryBoth, ErrTopTierBounded, 1},
		{"inverted range", []Tier{{FromQty: 0, ToQty: qty(5)}, {FromQty: 6, ToQty: qty(3)}, {FromQty: 4}}, BoundaryBoth, ErrTierRange, 1},
		{"negative price", []Tier{{FromQty: 0, PricePerUnit: price("-1")}}, BoundaryBoth, ErrNegativePrice, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTiers(tc.tiers, tc.boundary)
			require.ErrorIs(t, err, tc.want)
			if tc.index >= 0 {
				var tierErr *TierError
				require.True(t, errors.As(err, &tierErr))
				require.Equal(t, tc.index, tierErr.Index)
			}
		})
	}
}
