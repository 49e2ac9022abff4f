package objective

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Func evaluates a candidate parameter vector and returns its cost.
// The built-in functions are minimization benchmarks with a known optimum.
type Func func(x []float64) float64

// Sphere is the sum of squares. Global minimum 0 at the origin.
func Sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Rosenbrock is the banana valley function. Global minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

// Rastrigin is highly multimodal. Global minimum 0 at the origin.
func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

var registry = map[string]Func{
	"sphere":     Sphere,
	"rosenbrock": Rosenbrock,
	"rastrigin":  Rastrigin,
}

// ByName returns the named objective function.
func ByName(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective: %s (available: %v)", name, Names())
	}
	return fn, nil
}

// Names lists the available objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithNoise wraps fn with additive Gaussian noise drawn from rng, so the
// validation loop can exercise non-deterministic metrics. A non-positive
// stddev returns fn unchanged.
func WithNoise(fn Func, stddev float64, rng *rand.Rand) Func {
	if stddev <= 0 {
		return fn
	}
	return func(x []float64) float64 {
		return fn(x) + rng.NormFloat64()*stddev
	}
}
