package metric

// Direction selects the comparison policy for metric values
type Direction int

const (
	// Minimize treats smaller metric values as better (loss-like metrics)
	Minimize Direction = iota

	// Maximize treats larger metric values as better (accuracy-like metrics)
	Maximize
)

// String returns "minimize" or "maximize"
func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Better reports whether candidate is a strict improvement over reference.
// Ties are never an improvement under either direction.
func (d Direction) Better(candidate, reference float64) bool {
	if d == Maximize {
		return candidate > reference
	}
	return candidate < reference
}
