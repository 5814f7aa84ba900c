package document

// Placeholder binds a slide placeholder to the form or summary path that fills it.
type Placeholder struct {
	Variable  string `json:"variable"`
	FieldPath string `json:"fieldPath"`
}

// SlideTemplate describes one slide of the proposal deck.
type SlideTemplate struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Optional     string        `json:"optional,omitempty"`
	Placeholders []Placeholder `json:"placeholders"`
}

// Slides is the static deck layout. Optional names the form flag that must be set for the slide to render.
var Slides = []SlideTemplate{
	{
		ID:   "cover",
		Name: "Cover",
		Placeholders: []Placeholder{
			{Variable: "client_name", FieldPath: "form.business.businessName"},
			{Variable: "account_exec", FieldPath: "form.business.accountExec"},
			{Variable: "opportunity", FieldPath: "form.business.opportunity"},
		},
	},
	{
		ID:   "saas",
		Name: "Platform Fee",
		Placeholders: []Placeholder{
			{Variable: "monthly_pallets", FieldPath: "form.saas.monthlyPallets"},
			{Variable: "monthly_cases", FieldPath: "form.saas.monthlyCases"},
			{Variable: "monthly_eaches", FieldPath: "form.saas.monthlyEaches"},
			{Variable: "saas_fee", FieldPath: "summary.lines.0.amount"},
		},
	},
	{
		ID:   "integrations",
		Name: "Integrations",
		Placeholders: []Placeholder{
			{Variable: "store_connections", FieldPath: "form.integrations.storeConnections"},
			{Variable: "sps_retailers", FieldPath: "form.integrations.spsRetailers"},
		},
	},
	{
		ID:       "automation",
		Name:     "Attainable Automation",
		Optional: "options.attainableAutomation",
		Placeholders: []Placeholder{
			{Variable: "pick_to_light", FieldPath: "form.options.pickToLightConnections"},
			{Variable: "pack_to_light", FieldPath: "form.options.packToLightConnections"},
		},
	},
	{
		ID:       "case_studies",
		Name:     "Case Studies",
		Optional: "options.includeCaseStudies",
	},
	{
		ID:   "investment",
		Name: "Investment Summary",
		Placeholders: []Placeholder{
			{Variable: "payment_terms", FieldPath: "form.payment.paymentTerms"},
			{Variable: "implementation_package", FieldPath: "form.implementation.packageName"},
			{Variable: "one_time_total", FieldPath: "summary.oneTimeTotal"},
			{Variable: "recurring_annual", FieldPath: "summary.recurringAnnual"},
			{Variable: "due_per_period", FieldPath: "summary.duePerPeriod"},
			{Variable: "first_invoice", FieldPath: "summary.firstInvoice"},
		},
	},
}
