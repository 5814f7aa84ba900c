package proposal

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

// Tables carries the tier tables a summary is priced against.
type Tables struct {
	SaaS             []pricing.Tier `json:"saas"`
	StoreConnections []pricing.Tier `json:"storeConnections"`
	SPSRetailers     []pricing.Tier `json:"spsRetailers"`
	PickToLight      []pricing.Tier `json:"pickToLight"`
	PackToLight      []pricing.Tier `json:"packToLight"`
}

// ForDimension returns the table loaded for d.
func (t Tables) ForDimension(d pricing.Dimension) []pricing.Tier {
	switch d {
	case pricing.DimensionSaaS:
		return t.SaaS
	case pricing.DimensionStoreConnections:
		return t.StoreConnections
	case pricing.DimensionSPSRetailers:
		return t.SPSRetailers
	case pricing.DimensionPickToLight:
		return t.PickToLight
	case pricing.DimensionPackToLight:
		return t.PackToLight
	}
	return nil
}

// Set stores tiers under d.
func (t *Tables) Set(d pricing.Dimension, tiers []pricing.Tier) {
	switch d {
	case pricing.DimensionSaaS:
		t.SaaS = tiers
	case pricing.DimensionStoreConnections:
		t.StoreConnections = tiers
	case pricing.DimensionSPSRetailers:
		t.SPSRetailers = tiers
	case pricing.DimensionPickToLight:
		t.PickToLight = tiers
	case pricing.DimensionPackToLight:
		t.PackToLight = tiers
	}
}

// Line is one priced row of the summary. Computed is the annual cost before discount;
// Amount is what the customer pays after discount or override.
type Line struct {
	Key             LineKey              `json:"key"`
	Label           string               `json:"label"`
	Quantity        decimal.Decimal      `json:"quantity"`
	Recurring       bool                 `json:"recurring"`
	CurrentTier     *pricing.Tier        `json:"currentTier,omitempty"`
	Computed        decimal.Decimal      `json:"computed"`
	DiscountApplied bool                 `json:"discountApplied"`
	Discount        decimal.Decimal      `json:"discount"`
	Override        *decimal.Decimal     `json:"override,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	TierAvailable   bool                 `json:"tierAvailable"`
	Breakdown       []pricing.TierCharge `json:"breakdown,omitempty"`
}

// Summary aggregates every enabled line into one-time and recurring totals.
type Summary struct {
	Lines              []Line          `json:"lines"`
	OneTimeTotal       decimal.Decimal `json:"oneTimeTotal"`
	RecurringAnnual    decimal.Decimal `json:"recurringAnnual"`
	RecurringQuarterly decimal.Decimal `json:"recurringQuarterly"`
	RecurringMonthly   decimal.Decimal `json:"recurringMonthly"`
	BillingPeriod      pricing.Period  `json:"billingPeriod"`
	DuePerPeriod       decimal.Decimal `json:"duePerPeriod"`
	FirstInvoice       decimal.Decimal `json:"firstInvoice"`
	ContractValue      decimal.Decimal `json:"contractValue"`
}

// Line returns the summary row for key.
func (s Summary) Line(key LineKey) (Line, bool) {
	for _, line := range s.Lines {
		if line.Key == key {
			return line, true
		}
	}
	return Line{}, false
}

const centPlaces = 2

// Summarize prices form against tables. implementationPrice is the one-time price of the selected
// catalog package; the price on the form only counts when no package is selected.
func Summarize(form FormData, tables Tables, implementationPrice decimal.Decimal) Summary {
	form = form.Normalize()
	pct := form.Discount.Percent

	lines := make([]Line, 0, len(Lines))
	lines = append(lines, saasLine(form, tables.SaaS, pct))

	if form.Integrations.StoreConnectionsEnabled {
		lines = append(lines, perUnitLine(form, LineStoreConnections, "Store Connections",
			form.Integrations.StoreConnections, tables.StoreConnections, pricing.DimensionStoreConnections, pct))
	}
	if form.Integrations.SPSEnabled {
		lines = append(lines, perUnitLine(form, LineSPSRetailers, "SPS Retailer Support",
			form.Integrations.SPSRetailers, tables.SPSRetailers, pricing.DimensionSPSRetailers, pct))
	}
	if form.Options.AttainableAutomation {
		lines = append(lines,
			perUnitLine(form, LinePickToLight, "Pick-to-Light Connections",
				form.Options.PickToLightConnections, tables.PickToLight, pricing.DimensionPickToLight, pct),
			perUnitLine(form, LinePackToLight, "Pack-to-Light Connections",
				form.Options.PackToLightConnections, tables.PackToLight, pricing.DimensionPackToLight, pct),
		)
	}
	if form.Implementation.PackageID != "" || form.Implementation.PackagePrice.IsPositive() {
		price := implementationPrice
		if form.Implementation.PackageID == "" {
			price = form.Implementation.PackagePrice
		}
		line := Line{
			Key:           LineImplementation,
			Label:         implementationLabel(form.Implementation),
			Quantity:      decimal.NewFromInt(1),
			Computed:      price,
			TierAvailable: true,
		}
		lines = append(lines, finishLine(form, line, pct))
	}

	period, err := pricing.ParsePeriod(string(form.Payment.PaymentTerms))
	if err != nil {
		period = pricing.Annual
	}
	summary := Summary{Lines: lines, BillingPeriod: period}
	oneTime := decimal.Zero
	annual := decimal.Zero
	for _, line := range lines {
		if line.Recurring {
			annual = annual.Add(line.Amount)
		} else {
			oneTime = oneTime.Add(line.Amount)
		}
	}
	summary.OneTimeTotal = oneTime.Round(centPlaces)
	summary.RecurringAnnual = annual.Round(centPlaces)
	summary.RecurringQuarterly = pricing.PerPeriod(annual, pricing.Quarterly).Round(centPlaces)
	summary.RecurringMonthly = pricing.PerPeriod(annual, pricing.Monthly).Round(centPlaces)
	summary.DuePerPeriod = pricing.PerPeriod(annual, summary.BillingPeriod).Round(centPlaces)
	summary.FirstInvoice = summary.DuePerPeriod.Add(summary.OneTimeTotal)

	months := form.Payment.ContractTermMonths
	if months <= 0 {
		months = 12
	}
	contract := annual.Mul(decimal.NewFromInt(int64(months))).Div(decimal.NewFromInt(12))
	summary.ContractValue = contract.Add(oneTime).Round(centPlaces)
	return summary
}

func saasLine(form FormData, tiers []pricing.Tier, pct decimal.Decimal) Line {
	units := form.SaaS.AnnualUnits()
	result := pricing.ProgressiveFee(units, tiers, decimal.Zero)
	line := Line{
		Key:           LineSaaSFee,
		Label:         "SaaS Platform Fee",
		Quantity:      units,
		Recurring:     true,
		Computed:      result.Subtotal,
		TierAvailable: result.Available,
		Breakdown:     result.Breakdown,
	}
	return finishLine(form, line, pct)
}

func perUnitLine(form FormData, key LineKey, label string, quantity int64, tiers []pricing.Tier, d pricing.Dimension, pct decimal.Decimal) Line {
	line := Line{
		Key:           key,
		Label:         label,
		Quantity:      decimal.NewFromInt(quantity),
		Recurring:     true,
		Computed:      pricing.AnnualTierCost(quantity, tiers, d.Boundary(), d.Period()),
		TierAvailable: len(tiers) > 0,
	}
	if tier, ok := pricing.RateFor(quantity, tiers, d.Boundary()); ok {
		line.CurrentTier = &tier
	}
	return finishLine(form, line, pct)
}

// finishLine applies override precedence, then the discount.
func finishLine(form FormData, line Line, pct decimal.Decimal) Line {
	line.Discount = decimal.Zero
	if override, ok := form.Override(line.Key); ok {
		line.Override = &override
		line.Amount = override
		return line
	}
	enabled := form.DiscountEnabled(line.Key)
	line.Amount = pricing.ApplyDiscount(line.Computed, pct, enabled)
	line.DiscountApplied = enabled && pct.IsPositive()
	line.Discount = line.Computed.Sub(line.Amount)
	return line
}

func implementationLabel(impl Implementation) string {
	if impl.PackageName != "" {
		return impl.PackageName
	}
	return "Implementation"
}
