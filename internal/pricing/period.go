package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Period is the billing cadence a tier table is priced in.
type Period string

const (
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Annual    Period = "annual"
)

// PeriodsPerYear is the annualization factor for the period.
func (p Period) PeriodsPerYear() int64 {
	switch p {
	case Monthly:
		return 12
	case Quarterly:
		return 4
	default:
		return 1
	}
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	return p == Monthly || p == Quarterly || p == Annual
}

// ParsePeriod normalises a textual period.
func ParsePeriod(value string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", fmt.Errorf("pricing: unknown period %q", value)
	}
	return p, nil
}

// Annualize converts a per-period cost to an annual figure.
func Annualize(cost decimal.Decimal, p Period) decimal.Decimal {
	return cost.Mul(decimal.NewFromInt(p.PeriodsPerYear()))
}

// PerPeriod splits an annual amount evenly across the periods of a year.
func PerPeriod(annual decimal.Decimal, p Period) decimal.Decimal {
	return annual.Div(decimal.NewFromInt(p.PeriodsPerYear()))
}
