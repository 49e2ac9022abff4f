package metric

// Value is a metric observation that may still need evaluation to produce
// its scalar. Callers resolve a value exactly once per use; implementations
// must not rely on being called again.
type Value interface {
	Resolve() (float64, error)
}

// Scalar is an already-resolved metric value
type Scalar float64

// Resolve returns the scalar unchanged
func (s Scalar) Resolve() (float64, error) {
	return float64(s), nil
}

// Func defers metric evaluation until the value is resolved. Useful when
// producing the metric is expensive or can fail (e.g., a validation pass).
type Func func() (float64, error)

// Resolve evaluates the deferred metric
func (f Func) Resolve() (float64, error) {
	return f()
}
