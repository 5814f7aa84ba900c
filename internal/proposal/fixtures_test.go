package proposal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

func upTo(v int64) *int64 { return &v }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, amount(want).Equal(got), "expected %s, got %s", want, got.String())
}

func fixtureTables() Tables {
	return Tables{
		SaaS: []pricing.Tier{
			{ID: "saas-0", Name: "Platform", FromQty: 0, ToQty: upTo(1000), PricePerUnit: amount("500")},
			{ID: "saas-1", Name: "Growth", FromQty: 1000, ToQty: upTo(5000), PricePerUnit: amount("0.10")},
			{ID: "saas-2", Name: "Scale", FromQty: 5000, PricePerUnit: amount("0.05")},
		},
		StoreConnections: []pricing.Tier{
			{ID: "sc-0", FromQty: 0, ToQty: upTo(5), PricePerUnit: amount("0")},
			{ID: "sc-1", FromQty: 6, ToQty: upTo(50), PricePerUnit: amount("30")},
			{ID: "sc-2", FromQty: 51, ToQty: upTo(100), PricePerUnit: amount("25")},
			{ID: "sc-3", FromQty: 101, PricePerUnit: amount("20")},
		},
		SPSRetailers: []pricing.Tier{
			{ID: "sps-0", FromQty: 0, ToQty: upTo(10), PricePerUnit: amount("50")},
			{ID: "sps-1", FromQty: 10, PricePerUnit: amount("40")},
		},
		PickToLight: []pricing.Tier{
			{ID: "ptl-0", FromQty: 0, ToQty: upTo(5), PricePerUnit: amount("100")},
			{ID: "ptl-1", FromQty: 5, PricePerUnit: amount("80")},
		},
		PackToLight: []pricing.Tier{
			{ID: "pkl-0", FromQty: 0, ToQty: upTo(5), PricePerUnit: amount("100")},
			{ID: "pkl-1", FromQty: 5, PricePerUnit: amount("80")},
		},
	}
}

// completeForm passes every wizard step.
func completeForm() FormData {
	form := NewFormData()
	form.Business = BusinessInfo{
		AccountExec:  "Ana Ruiz",
		Opportunity:  "op-100",
		BusinessName: "Acme Fulfilment",
		AccountType:  "Enterprise",
		ContactName:  "Jo Park",
		ContactEmail: "jo@acme.test",
	}
	form.Payment = PaymentDetails{PaymentTerms: pricing.Quarterly, ContractTermMonths: 12, BillingStartDate: "2026-11-01"}
	form.SaaS = SaaSInputs{MonthlyPallets: 100, MonthlyCases: 200, MonthlyEaches: 200}
	form.Integrations = Integrations{StoreConnectionsEnabled: true, StoreConnections: 60, SPSEnabled: true, SPSRetailers: 12}
	form.Options = ProposalOptions{AttainableAutomation: true, PickToLightConnections: 3, PackToLightConnections: 7, IncludeCaseStudies: true}
	form.Implementation = Implementation{PackageID: "pkg-standard", PackageName: "Standard Onboarding", PackagePrice: amount("5000")}
	return form
}
