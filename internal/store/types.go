package store

import (
	"fmt"
	"time"
)

// Snapshot is an immutable capture of tracked parameter values together with
// the metric that earned it. Snapshots are replaced whole when a better
// metric arrives, never mutated in place.
//
// What is captured:
//   - Values: one vector per tracked parameter name, copied at capture time
//   - Metric: the resolved metric value that made this the best seen so far
//   - Round: the 1-based update ordinal at which the capture happened
//
// What is deliberately not captured: optimizer internals (populations,
// velocities, schedules). Restoring a snapshot recovers the best parameters,
// not the trajectory that found them; a resumed search restarts its own
// machinery around the restored values.
type Snapshot struct {
	// Metric is the resolved metric value achieved by Values
	Metric float64 `json:"metric"`

	// Round is the update ordinal at capture time (1 = first update)
	Round int `json:"round"`

	// CapturedAt records when this snapshot was taken
	CapturedAt time.Time `json:"capturedAt"`

	// Values maps each tracked parameter name to its captured vector
	Values map[string][]float64 `json:"values"`
}

// NewSnapshot builds a snapshot from live values, copying every vector so
// later mutation of the originals cannot reach the capture.
func NewSnapshot(metricVal float64, round int, values map[string][]float64) *Snapshot {
	copied := make(map[string][]float64, len(values))
	for name, v := range values {
		copied[name] = append([]float64(nil), v...)
	}
	return &Snapshot{
		Metric:     metricVal,
		Round:      round,
		CapturedAt: time.Now(),
		Values:     copied,
	}
}

// Value returns a copy of the captured vector for one name.
func (s *Snapshot) Value(name string) ([]float64, bool) {
	v, ok := s.Values[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v...), true
}

// Validate checks that the snapshot carries exactly one entry per tracked
// name, no more and no less.
func (s *Snapshot) Validate(names []string) error {
	if s.Values == nil {
		return &ValidationError{Field: "Values", Reason: "cannot be nil"}
	}
	if len(s.Values) != len(names) {
		return &ValidationError{
			Field:  "Values",
			Reason: fmt.Sprintf("holds %d entries for %d tracked parameters", len(s.Values), len(names)),
		}
	}
	for _, name := range names {
		if _, ok := s.Values[name]; !ok {
			return &ValidationError{
				Field:  "Values",
				Reason: fmt.Sprintf("missing entry for %q", name),
			}
		}
	}
	if s.Round < 0 {
		return &ValidationError{Field: "Round", Reason: "cannot be negative"}
	}
	if s.CapturedAt.IsZero() {
		return &ValidationError{Field: "CapturedAt", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a snapshot validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
