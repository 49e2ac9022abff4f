package earlystop

import (
	"log/slog"
	"math"

	"github.com/cwbudde/earlystop/internal/metric"
)

// PatienceConfig defines parameters for detecting a stalled metric
type PatienceConfig struct {
	// Enabled controls whether stall detection is active
	Enabled bool

	// Rounds is the number of evaluation rounds with no significant
	// improvement before the loop should stop
	Rounds int

	// MinDelta is the minimum relative improvement required to count as
	// progress. Example: 0.001 = 0.1% improvement required
	MinDelta float64
}

// DefaultPatienceConfig returns sensible defaults for stall detection
func DefaultPatienceConfig() PatienceConfig {
	return PatienceConfig{
		Enabled:  true,
		Rounds:   3,
		MinDelta: 0.001, // 0.1% improvement
	}
}

// DisabledPatienceConfig returns a config with stall detection disabled
func DisabledPatienceConfig() PatienceConfig {
	return PatienceConfig{
		Enabled: false,
	}
}

// Patience watches the metric stream and reports when it has stalled.
// It runs beside a Controller: the controller keeps the best state, the
// tracker only decides when continuing is no longer worth it.
type Patience struct {
	config          PatienceConfig
	dir             metric.Direction
	history         []float64
	lastSignificant float64 // Last value that counted as real progress
	hasLast         bool
	staleCount      int // Rounds since the last significant improvement
}

// NewPatience creates a stall tracker for the given direction
func NewPatience(config PatienceConfig, dir metric.Direction) *Patience {
	return &Patience{
		config: config,
		dir:    dir,
	}
}

// Update records a metric value and returns true once the stream has gone
// config.Rounds rounds without a relative improvement of at least MinDelta.
func (p *Patience) Update(metricVal float64) bool {
	if !p.config.Enabled {
		return false // Never stall if disabled
	}

	p.history = append(p.history, metricVal)

	// First value - initialize the reference point
	if !p.hasLast {
		p.lastSignificant = metricVal
		p.hasLast = true
		return false
	}

	if p.significantImprovement(metricVal) {
		p.lastSignificant = metricVal
		p.staleCount = 0
		slog.Debug("Metric improvement detected",
			"metric", metricVal,
			"stale_count", p.staleCount,
		)
		return false
	}

	p.staleCount++
	slog.Debug("No significant metric improvement",
		"metric", metricVal,
		"last_significant", p.lastSignificant,
		"stale_count", p.staleCount,
		"patience", p.config.Rounds,
	)

	if p.staleCount >= p.config.Rounds {
		slog.Info("Metric stalled, stopping early",
			"stale_count", p.staleCount,
			"patience", p.config.Rounds,
		)
		return true
	}
	return false
}

// significantImprovement reports whether metricVal beats the last
// significant value by at least MinDelta. The delta is relative when the
// reference is nonzero and absolute when it is zero.
func (p *Patience) significantImprovement(metricVal float64) bool {
	delta := p.lastSignificant - metricVal
	if p.dir == metric.Maximize {
		delta = metricVal - p.lastSignificant
	}
	if ref := math.Abs(p.lastSignificant); ref > 0 {
		delta /= ref
	}
	return delta >= p.config.MinDelta
}

// History returns the recorded metric values
func (p *Patience) History() []float64 {
	return append([]float64(nil), p.history...) // Return copy
}

// StaleCount returns the current number of rounds without improvement
func (p *Patience) StaleCount() int {
	return p.staleCount
}

// Reset clears the tracker's state
func (p *Patience) Reset() {
	p.history = nil
	p.lastSignificant = 0
	p.hasLast = false
	p.staleCount = 0
}
