package proposal

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

// Upper limits for quantity inputs. They keep tier walks and annual volumes inside int64.
const (
	MaxMonthlyVolume = 1_000_000_000
	MaxConnections   = 1_000_000
)

// LineKey identifies a priced line item of the summary.
type LineKey string

const (
	LineSaaSFee          LineKey = "saas_fee"
	LineStoreConnections LineKey = "store_connections"
	LineSPSRetailers     LineKey = "sps_retailers"
	LinePickToLight      LineKey = "pick_to_light"
	LinePackToLight      LineKey = "pack_to_light"
	LineImplementation   LineKey = "implementation"
)

// Lines is the display order of the summary.
var Lines = []LineKey{
	LineSaaSFee,
	LineStoreConnections,
	LineSPSRetailers,
	LinePickToLight,
	LinePackToLight,
	LineImplementation,
}

// Valid reports whether k names a known line.
func (k LineKey) Valid() bool {
	for _, line := range Lines {
		if line == k {
			return true
		}
	}
	return false
}

// BusinessInfo is collected on the first wizard step.
type BusinessInfo struct {
	AccountExec  string `json:"accountExec" validate:"required"`
	Opportunity  string `json:"opportunity" validate:"required"`
	BusinessName string `json:"businessName" validate:"required"`
	AccountType  string `json:"accountType"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

// PaymentDetails describes billing cadence and contract length.
type PaymentDetails struct {
	PaymentTerms       pricing.Period `json:"paymentTerms" validate:"required,oneof=annual quarterly monthly"`
	ContractTermMonths int            `json:"contractTermMonths" validate:"required,gte=1,lte=120"`
	BillingStartDate   string         `json:"billingStartDate" validate:"omitempty,datetime=2006-01-02"`
}

// SaaSInputs holds the monthly fulfilment volumes that drive the platform fee.
type SaaSInputs struct {
	MonthlyPallets int64 `json:"monthlyPallets" validate:"gte=0,lte=1000000000"`
	MonthlyCases   int64 `json:"monthlyCases" validate:"gte=0,lte=1000000000"`
	MonthlyEaches  int64 `json:"monthlyEaches" validate:"gte=0,lte=1000000000"`
}

// AnnualUnits is the total yearly volume across pallets, cases and eaches.
func (s SaaSInputs) AnnualUnits() decimal.Decimal {
	monthly := decimal.NewFromInt(s.MonthlyPallets).
		Add(decimal.NewFromInt(s.MonthlyCases)).
		Add(decimal.NewFromInt(s.MonthlyEaches))
	return monthly.Mul(decimal.NewFromInt(12))
}

// Integrations toggles the store-connection and SPS retailer add-ons.
type Integrations struct {
	StoreConnectionsEnabled bool  `json:"storeConnectionsEnabled"`
	StoreConnections        int64 `json:"storeConnections" validate:"gte=0,lte=1000000,required_if=StoreConnectionsEnabled true"`
	SPSEnabled              bool  `json:"spsEnabled"`
	SPSRetailers            int64 `json:"spsRetailers" validate:"gte=0,lte=1000000,required_if=SPSEnabled true"`
}

// ProposalOptions carries the automation add-ons and presentation flags.
type ProposalOptions struct {
	AttainableAutomation   bool  `json:"attainableAutomation"`
	PickToLightConnections int64 `json:"pickToLightConnections" validate:"gte=0,lte=1000000"`
	PackToLightConnections int64 `json:"packToLightConnections" validate:"gte=0,lte=1000000"`
	IncludeCaseStudies     bool  `json:"includeCaseStudies"`
}

// Implementation records the selected one-time implementation package.
type Implementation struct {
	PackageID    string          `json:"packageId" validate:"required"`
	PackageName  string          `json:"packageName"`
	PackagePrice decimal.Decimal `json:"packagePrice" validate:"gte=0"`
}

// DiscountSetting is a percentage plus the lines it applies to.
type DiscountSetting struct {
	Percent decimal.Decimal  `json:"percent" validate:"gte=0,lte=100"`
	Lines   map[LineKey]bool `json:"lines"`
}

// FormData is the aggregate proposal state. It is passed by value and only changed through Reduce.
type FormData struct {
	Business       BusinessInfo                `json:"business"`
	Payment        PaymentDetails              `json:"payment"`
	SaaS           SaaSInputs                  `json:"saas"`
	Integrations   Integrations                `json:"integrations"`
	Options        ProposalOptions             `json:"options"`
	Implementation Implementation              `json:"implementation"`
	Discount       DiscountSetting             `json:"discount"`
	Overrides      map[LineKey]decimal.Decimal `json:"overrides"`
}

// NewFormData returns the defaults a fresh wizard starts from.
func NewFormData() FormData {
	lines := make(map[LineKey]bool, len(Lines))
	for _, line := range Lines {
		lines[line] = true
	}
	return FormData{
		Payment: PaymentDetails{
			PaymentTerms:       pricing.Annual,
			ContractTermMonths: 12,
		},
		Discount: DiscountSetting{Lines: lines},
		Overrides: map[LineKey]decimal.Decimal{},
	}
}

// Clone returns a deep copy so the maps are never shared between states.
func (f FormData) Clone() FormData {
	out := f
	if f.Discount.Lines != nil {
		out.Discount.Lines = make(map[LineKey]bool, len(f.Discount.Lines))
		for k, v := range f.Discount.Lines {
			out.Discount.Lines[k] = v
		}
	}
	if f.Overrides != nil {
		out.Overrides = make(map[LineKey]decimal.Decimal, len(f.Overrides))
		for k, v := range f.Overrides {
			out.Overrides[k] = v
		}
	}
	return out
}

// Normalize returns a copy where every overridden line has its discount flag off.
// Forms arriving over the wire go through it before pricing.
func (f FormData) Normalize() FormData {
	out := f.Clone()
	if len(out.Overrides) == 0 {
		return out
	}
	if out.Discount.Lines == nil {
		out.Discount.Lines = make(map[LineKey]bool, len(out.Overrides))
	}
	for line := range out.Overrides {
		out.Discount.Lines[line] = false
	}
	return out
}

// Override returns the manual amount for line, if one was entered.
func (f FormData) Override(line LineKey) (decimal.Decimal, bool) {
	v, ok := f.Overrides[line]
	return v, ok
}

// DiscountEnabled reports whether the discount applies to line. Overridden lines are never discounted.
func (f FormData) DiscountEnabled(line LineKey) bool {
	if _, overridden := f.Overrides[line]; overridden {
		return false
	}
	return f.Discount.Lines[line]
}
