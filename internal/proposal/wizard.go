package proposal

// Step is a position in the linear proposal wizard.
type Step int

const (
	StepBusinessInfo Step = iota
	StepPaymentDetails
	StepSaaSFee
	StepIntegrations
	StepProposalOptions
	StepImplementation
	StepReview
)

var stepNames = [...]string{
	"Business Info",
	"Payment Details",
	"SaaS Fee",
	"Integrations",
	"Proposal Options",
	"Implementation",
	"Review",
}

// Valid reports whether s is one of the wizard steps.
func (s Step) Valid() bool { return s >= StepBusinessInfo && s <= StepReview }

// String implements fmt.Stringer.
func (s Step) String() string {
	if !s.Valid() {
		return "Unknown"
	}
	return stepNames[s]
}

// Wizard is the navigation state of one proposal session. Transitions return a new value.
type Wizard struct {
	CurrentStep   Step     `json:"currentStep"`
	InvalidFields []string `json:"invalidFields"`
	DocumentURL   string   `json:"documentUrl,omitempty"`
}

// NewWizard starts at the first step.
func NewWizard() Wizard {
	return Wizard{CurrentStep: StepBusinessInfo, InvalidFields: []string{}}
}

// Continue advances one step when the current step's required fields are present.
// Otherwise the step is kept and InvalidFields lists what blocked it.
func (w Wizard) Continue(form FormData) Wizard {
	next := w
	if !w.CurrentStep.Valid() {
		next.InvalidFields = []string{"currentStep"}
		return next
	}
	invalid := StepErrors(w.CurrentStep, form)
	if len(invalid) > 0 {
		next.InvalidFields = invalid
		return next
	}
	next.InvalidFields = []string{}
	if w.CurrentStep < StepReview {
		next.CurrentStep = w.CurrentStep + 1
	}
	return next
}

// Back moves one step back and clears validation state. It never fails.
func (w Wizard) Back() Wizard {
	next := w
	next.InvalidFields = []string{}
	if w.CurrentStep > StepBusinessInfo {
		next.CurrentStep = w.CurrentStep - 1
	}
	return next
}

// CanGenerate reports whether generation is allowed: the review step is reached and every step validates.
func (w Wizard) CanGenerate(form FormData) bool {
	return w.CurrentStep == StepReview && len(ValidateAll(form)) == 0
}

// Generated records the document URL returned by generation.
func (w Wizard) Generated(url string) Wizard {
	next := w
	next.DocumentURL = url
	return next
}
