package earlystop

import (
	"github.com/cwbudde/earlystop/internal/metric"
	"github.com/cwbudde/earlystop/internal/store"
)

// Option configures a controller at Open time.
type Option func(*config)

type config struct {
	direction      metric.Direction
	initial        metric.Value
	store          store.Store
	cleanup        bool
	restoreOnError bool
	resume         bool
}

func defaultConfig() config {
	return config{
		direction: metric.Minimize,
		cleanup:   true,
	}
}

// WithInitialMetric seeds the best-metric record so only values beating it
// count as improvements. Seeding does not capture a snapshot; until an
// update improves there is nothing to restore.
func WithInitialMetric(v float64) Option {
	return func(c *config) {
		c.initial = metric.Scalar(v)
	}
}

// WithInitialMetricValue is WithInitialMetric for lazily produced values.
// The value is resolved exactly once, at Open.
func WithInitialMetricValue(v metric.Value) Option {
	return func(c *config) {
		c.initial = v
	}
}

// WithDirection selects the comparison policy. The default is
// metric.Minimize (smaller is better).
func WithDirection(d metric.Direction) Option {
	return func(c *config) {
		c.direction = d
	}
}

// WithCheckpoints mirrors every captured snapshot to st so the best state
// survives a process crash inside the scope. The store owns its directory;
// the controller clears it on a fresh entry and removes it at exit unless
// WithKeepCheckpoints is also given.
func WithCheckpoints(st store.Store) Option {
	return func(c *config) {
		c.store = st
	}
}

// WithKeepCheckpoints leaves the checkpoint directory and its latest
// artifact in place at exit instead of removing them.
func WithKeepCheckpoints() Option {
	return func(c *config) {
		c.cleanup = false
	}
}

// WithRestoreOnError restores the best parameters even when the scope exits
// with an error. The default restores only on normal completion.
func WithRestoreOnError() Option {
	return func(c *config) {
		c.restoreOnError = true
	}
}

// WithResume hydrates the best state from the checkpoint store at Open
// instead of clearing it, continuing an interrupted scope. Without a stored
// snapshot the scope simply starts fresh.
func WithResume() Option {
	return func(c *config) {
		c.resume = true
	}
}
