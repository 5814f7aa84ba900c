package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTiers is returned for an empty tier table.
	ErrNoTiers = errors.New("pricing: tier table is empty")
	// ErrTierOrder indicates tiers are not sorted ascending by fromQty.
	ErrTierOrder = errors.New("pricing: tiers must be sorted by fromQty")
	// ErrTierRange indicates a tier whose upper limit does not exceed its lower limit.
	ErrTierRange = errors.New("pricing: tier toQty must be greater than fromQty")
	// ErrTierGap indicates a quantity range no tier covers.
	ErrTierGap = errors.New("pricing: tiers leave a gap")
	// ErrTierOverlap indicates a quantity range covered by more than one tier.
	ErrTierOverlap = errors.New("pricing: tiers overlap")
	// ErrOpenTierNotLast indicates an open-ended tier followed by further tiers.
	ErrOpenTierNotLast = errors.New("pricing: only the last tier may be open-ended")
	// ErrTopTierBounded indicates the last tier has an upper limit, leaving large quantities unpriced.
	ErrTopTierBounded = errors.New("pricing: last tier must be open-ended")
	// ErrNegativePrice indicates a tier with a negative unit price.
	ErrNegativePrice = errors.New("pricing: tier price must not be negative")
)

// TierError pins a validation failure to a tier position.
type TierError struct {
	Index int
	Err   error
}

func (e *TierError) Error() string {
	return fmt.Sprintf("tier %d: %v", e.Index, e.Err)
}

func (e *TierError) Unwrap() error { return e.Err }

// ValidateTiers checks that tiers form one contiguous, non-overlapping table covering every
// quantity from zero upward under the given boundary convention. It is meant to run when a
// table is edited; the cost functions themselves accept malformed tables.
func ValidateTiers(tiers []Tier, boundary Boundary) error {
	if len(tiers) == 0 {
		return ErrNoTiers
	}
	first := tiers[0]
	if first.FromQty < 0 || (boundary == BoundaryUpperOnly && first.FromQty != 0) || first.FromQty > 1 {
		return &TierError{Index: 0, Err: ErrTierGap}
	}
	last := len(tiers) - 1
	for i, t := range tiers {
		if t.PricePerUnit.IsNegative() {
			return &TierError{Index: i, Err: ErrNegativePrice}
		}
		if !t.Bounded() {
			if i != last {
				return &TierError{Index: i, Err: ErrOpenTierNotLast}
			}
		} else {
			to := *t.ToQty
			if to < t.FromQty || (boundary == BoundaryUpperOnly && to == t.FromQty) {
				return &TierError{Index: i, Err: ErrTierRange}
			}
			if i == last {
				return &TierError{Index: i, Err: ErrTopTierBounded}
			}
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if t.FromQty <= prev.FromQty {
			return &TierError{Index: i, Err: ErrTierOrder}
		}
		expected := *prev.ToQty
		if boundary == BoundaryBoth {
			expected++
		}
		switch {
		case t.FromQty > expected:
			return &TierError{Index: i, Err: ErrTierGap}
		case t.FromQty < expected:
			return &TierError{Index: i, Err: ErrTierOverlap}
		}
	}
	return nil
}
