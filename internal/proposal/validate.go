package proposal

import (
	"fmt"
	"sort"

	"github.com/noah-isme/proposalhero/internal/common"
)

// StepErrors returns the json names of the fields that block leaving step, in form order.
func StepErrors(step Step, form FormData) []string {
	fields, _ := stepErrors(step, form)
	return fields
}

func stepErrors(step Step, form FormData) ([]string, map[string]string) {
	var target any
	switch step {
	case StepBusinessInfo:
		target = form.Business
	case StepPaymentDetails:
		target = form.Payment
	case StepSaaSFee:
		target = form.SaaS
	case StepIntegrations:
		target = form.Integrations
	case StepProposalOptions:
		target = form.Options
	case StepImplementation:
		target = form.Implementation
	case StepReview:
		return reviewErrors(form)
	default:
		return nil, nil
	}
	if err := common.Validator().Struct(target); err != nil {
		return common.FieldErrors(err)
	}
	return nil, nil
}

func reviewErrors(form FormData) ([]string, map[string]string) {
	var fields []string
	messages := map[string]string{}
	if err := common.Validator().Struct(form.Discount); err != nil {
		f, m := common.FieldErrors(err)
		fields = append(fields, f...)
		for k, v := range m {
			messages[k] = v
		}
	}
	for _, line := range Lines {
		amount, ok := form.Overrides[line]
		if ok && amount.IsNegative() {
			name := fmt.Sprintf("overrides.%s", line)
			fields = append(fields, name)
			messages[name] = "must be at least 0"
		}
	}
	unknown := make([]string, 0)
	for line := range form.Overrides {
		if !line.Valid() {
			unknown = append(unknown, fmt.Sprintf("overrides.%s", line))
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fields = append(fields, name)
		messages[name] = "is not a known line"
	}
	return fields, messages
}

type quantityInput struct {
	name  string
	value int64
	max   int64
}

// quantityErrors checks only the numeric ranges of the quantity inputs, so a draft form can be priced
// before its required fields are filled in.
func quantityErrors(form FormData) ([]string, map[string]string) {
	inputs := []quantityInput{
		{"monthlyPallets", form.SaaS.MonthlyPallets, MaxMonthlyVolume},
		{"monthlyCases", form.SaaS.MonthlyCases, MaxMonthlyVolume},
		{"monthlyEaches", form.SaaS.MonthlyEaches, MaxMonthlyVolume},
		{"storeConnections", form.Integrations.StoreConnections, MaxConnections},
		{"spsRetailers", form.Integrations.SPSRetailers, MaxConnections},
		{"pickToLightConnections", form.Options.PickToLightConnections, MaxConnections},
		{"packToLightConnections", form.Options.PackToLightConnections, MaxConnections},
	}
	var fields []string
	messages := map[string]string{}
	for _, in := range inputs {
		switch {
		case in.value < 0:
			messages[in.name] = "must be at least 0"
		case in.value > in.max:
			messages[in.name] = fmt.Sprintf("must be at most %d", in.max)
		default:
			continue
		}
		fields = append(fields, in.name)
	}
	return fields, messages
}

// ValidateAll checks every step and returns the combined invalid field names.
func ValidateAll(form FormData) []string {
	fields, _ := validateAll(form)
	return fields
}

func validateAll(form FormData) ([]string, map[string]string) {
	var fields []string
	messages := map[string]string{}
	for step := StepBusinessInfo; step <= StepReview; step++ {
		f, m := stepErrors(step, form)
		fields = append(fields, f...)
		for k, v := range m {
			messages[k] = v
		}
	}
	return fields, messages
}
