package proposal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/proposalhero/internal/pricing"
)

var (
	// ErrUnknownAction is returned for an action type Reduce does not handle.
	ErrUnknownAction = errors.New("proposal: unknown action")
	// ErrUnknownField is returned when SetField names a path the form does not have.
	ErrUnknownField = errors.New("proposal: unknown field")
	// ErrProtectedField is returned when SetField targets discount or override state directly.
	ErrProtectedField = errors.New("proposal: field must be changed through its dedicated action")
	// ErrInvalidValue is returned when a value does not fit the field's type.
	ErrInvalidValue = errors.New("proposal: invalid value")
	// ErrUnknownLine is returned for a line key outside the summary.
	ErrUnknownLine = errors.New("proposal: unknown line")
	// ErrInvalidAmount is returned for a negative override.
	ErrInvalidAmount = errors.New("proposal: override must not be negative")
	// ErrInvalidPercent is returned for a discount outside [0, 100].
	ErrInvalidPercent = errors.New("proposal: discount percent must be between 0 and 100")
	// ErrDiscountLocked is returned when enabling the discount on a line that carries a manual override.
	ErrDiscountLocked = errors.New("proposal: discount cannot apply to an overridden line")
)

// ActionType discriminates reducer actions.
type ActionType string

const (
	ActionSetField           ActionType = "setField"
	ActionSetOverride        ActionType = "setOverride"
	ActionClearOverride      ActionType = "clearOverride"
	ActionSetDiscountPercent ActionType = "setDiscountPercent"
	ActionSetDiscountLine    ActionType = "setDiscountLine"
)

// Action is one form change. Only the fields relevant to Type are read.
type Action struct {
	Type    ActionType      `json:"type" validate:"required,oneof=setField setOverride clearOverride setDiscountPercent setDiscountLine"`
	Path    string          `json:"path,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Line    LineKey         `json:"line,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
	Enabled bool            `json:"enabled,omitempty"`
}

// SetField sets the form field at a dotted json path, e.g. "business.accountExec".
func SetField(path string, value any) Action {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = nil
	}
	return Action{Type: ActionSetField, Path: path, Value: raw}
}

// SetOverride replaces a line's computed amount with a manual one.
func SetOverride(line LineKey, amount decimal.Decimal) Action {
	return Action{Type: ActionSetOverride, Line: line, Amount: amount}
}

// ClearOverride removes a manual amount. The line's discount stays off until re-enabled.
func ClearOverride(line LineKey) Action {
	return Action{Type: ActionClearOverride, Line: line}
}

// SetDiscountPercent changes the discount percentage.
func SetDiscountPercent(pct decimal.Decimal) Action {
	return Action{Type: ActionSetDiscountPercent, Percent: pct}
}

// SetDiscountLine toggles whether the discount applies to line.
func SetDiscountLine(line LineKey, enabled bool) Action {
	return Action{Type: ActionSetDiscountLine, Line: line, Enabled: enabled}
}

// Reduce applies action to state and returns the next state. state is never modified.
func Reduce(state FormData, action Action) (FormData, error) {
	next := state.Clone()
	switch action.Type {
	case ActionSetField:
		return setField(next, action.Path, action.Value)
	case ActionSetOverride:
		if !action.Line.Valid() {
			return state, fmt.Errorf("%w: %q", ErrUnknownLine, action.Line)
		}
		if action.Amount.IsNegative() {
			return state, ErrInvalidAmount
		}
		if next.Overrides == nil {
			next.Overrides = map[LineKey]decimal.Decimal{}
		}
		if next.Discount.Lines == nil {
			next.Discount.Lines = map[LineKey]bool{}
		}
		next.Overrides[action.Line] = action.Amount
		next.Discount.Lines[action.Line] = false
		return next, nil
	case ActionClearOverride:
		if !action.Line.Valid() {
			return state, fmt.Errorf("%w: %q", ErrUnknownLine, action.Line)
		}
		delete(next.Overrides, action.Line)
		return next, nil
	case ActionSetDiscountPercent:
		if action.Percent.IsNegative() || action.Percent.GreaterThan(decimal.NewFromInt(100)) {
			return state, ErrInvalidPercent
		}
		next.Discount.Percent = action.Percent
		return next, nil
	case ActionSetDiscountLine:
		if !action.Line.Valid() {
			return state, fmt.Errorf("%w: %q", ErrUnknownLine, action.Line)
		}
		if _, overridden := next.Overrides[action.Line]; overridden && action.Enabled {
			return state, ErrDiscountLocked
		}
		if next.Discount.Lines == nil {
			next.Discount.Lines = map[LineKey]bool{}
		}
		next.Discount.Lines[action.Line] = action.Enabled
		return next, nil
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// setField round-trips the form through its json object so every path is addressed by its wire name
// and values are type-checked by the decoder.
func setField(state FormData, path string, value json.RawMessage) (FormData, error) {
	segments := strings.Split(strings.TrimSpace(path), ".")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return state, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	if segments[0] == "discount" || segments[0] == "overrides" {
		return state, fmt.Errorf("%w: %q", ErrProtectedField, path)
	}
	if len(value) == 0 {
		return state, fmt.Errorf("%w: %s requires a value", ErrInvalidValue, path)
	}

	encoded, err := json.Marshal(state)
	if err != nil {
		return state, err
	}
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return state, err
	}
	section, ok := doc[segments[0]]
	if !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	if _, ok := section[segments[1]]; !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}
	section[segments[1]] = value

	patched, err := json.Marshal(section)
	if err != nil {
		return state, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	next := state.Clone()
	target, err := sectionTarget(&next, segments[0])
	if err != nil {
		return state, err
	}
	decoder := json.NewDecoder(bytes.NewReader(patched))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return state, fmt.Errorf("%w: %s: %v", ErrInvalidValue, path, err)
	}
	if path == "payment.paymentTerms" {
		terms, err := pricing.ParsePeriod(string(next.Payment.PaymentTerms))
		if err != nil {
			return state, fmt.Errorf("%w: %s: %v", ErrInvalidValue, path, err)
		}
		next.Payment.PaymentTerms = terms
	}
	return next, nil
}

func sectionTarget(form *FormData, name string) (any, error) {
	switch name {
	case "business":
		return &form.Business, nil
	case "payment":
		return &form.Payment, nil
	case "saas":
		return &form.SaaS, nil
	case "integrations":
		return &form.Integrations, nil
	case "options":
		return &form.Options, nil
	case "implementation":
		return &form.Implementation, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}
