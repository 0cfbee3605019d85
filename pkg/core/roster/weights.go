package roster

// Category buckets penalty terms so operators can re-weight whole classes
// of soft violations from configuration without touching individual rules.
type Category string

const (
	// CategoryStaffingShortage penalizes days staffed below a coverage
	// minimum. Understaffing is the most expensive violation.
	CategoryStaffingShortage Category = "staffing_shortage"
	// CategoryStaffingExcess penalizes days staffed above a coverage maximum.
	CategoryStaffingExcess Category = "staffing_excess"
	// CategoryMinTotalShift penalizes employees falling short of a
	// facility-wide per-shift floor.
	CategoryMinTotalShift Category = "min_total_shift"
	// CategoryConsecutive penalizes breaches of facility-wide consecutive-day
	// caps.
	CategoryConsecutive Category = "consecutive"
	// CategorySequence penalizes breaches of soft shift-sequence rules.
	CategorySequence Category = "sequence"
	// CategoryPreference penalizes unmet individual requests.
	CategoryPreference Category = "preference"
	// CategoryBalance penalizes an uneven spread of off days across a group.
	CategoryBalance Category = "balance"
)

// Weights maps each penalty category to its objective multiplier.
type Weights map[Category]int64

// DefaultWeights returns the standard penalty weighting.
func DefaultWeights() Weights {
	return Weights{
		CategoryStaffingShortage: 100,
		CategoryStaffingExcess:   10,
		CategoryMinTotalShift:    10,
		CategoryConsecutive:      5,
		CategorySequence:         1,
		CategoryPreference:       1,
		CategoryBalance:          1,
	}
}

// Of returns the weight for a category, falling back to the default when
// the map does not override it.
func (w Weights) Of(cat Category) int64 {
	if v, ok := w[cat]; ok {
		return v
	}
	if v, ok := DefaultWeights()[cat]; ok {
		return v
	}
	return 1
}
