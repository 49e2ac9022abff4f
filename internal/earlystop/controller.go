package earlystop

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/earlystop/internal/metric"
	"github.com/cwbudde/earlystop/internal/store"
)

// ParamAccess is the capability the controller needs over live parameter
// storage: batch read and batch write by name. param.Store implements it;
// any other variable system can be adapted behind the same two methods.
type ParamAccess interface {
	Read(names []string) ([][]float64, error)
	Write(names []string, values [][]float64) error
}

// Controller watches a scalar metric across evaluation rounds and keeps the
// parameter values that produced the best value seen so far, independent of
// what the surrounding loop does to them afterwards.
//
// Lifecycle:
//
//	c, err := Open(access, names, opts...)
//	improved, err := c.Update(metricVal)   // per evaluation round
//	err = c.Close(cause)                   // exactly once
//
// or the scoped form, which guarantees Close on every exit path:
//
//	err := Run(access, names, func(c *Controller) error { ... }, opts...)
//
// Restore semantics:
//
// On an improving update the controller captures a snapshot of the tracked
// parameters. At Close it writes that snapshot back: always on a normal
// exit, and on an error exit only when WithRestoreOnError was given. With no
// snapshot captured (no update ever improved) nothing is written and the
// live values stay exactly as the loop left them. Untracked parameters are
// never touched.
//
// Checkpoint semantics:
//
// With WithCheckpoints, every captured snapshot is also persisted as the
// store's latest artifact, replacing the previous one. The in-memory
// snapshot stays authoritative for the restore at Close; the persisted copy
// exists for crash recovery via WithResume on a later scope. At exit the
// checkpoint directory is removed on both exit kinds unless
// WithKeepCheckpoints was given.
//
// A Controller is not safe for concurrent use; one sequential caller drives
// the whole lifecycle.
type Controller struct {
	access         ParamAccess
	names          []string
	dir            metric.Direction
	st             store.Store // nil when durable mirroring is off
	cleanup        bool
	restoreOnError bool

	best    float64
	hasBest bool
	snap    *store.Snapshot
	rounds  int
	closed  bool
}

// Open starts an early-stopping scope over the named parameters.
// names must not be empty and every name must stay readable and writable
// through access for the scope's lifetime.
func Open(access ParamAccess, names []string, opts ...Option) (*Controller, error) {
	if access == nil {
		return nil, fmt.Errorf("parameter access is required")
	}
	if len(names) == 0 {
		return nil, ErrNoParams
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Controller{
		access:         access,
		names:          append([]string(nil), names...),
		dir:            cfg.direction,
		st:             cfg.store,
		cleanup:        cfg.cleanup,
		restoreOnError: cfg.restoreOnError,
	}

	if cfg.initial != nil {
		v, err := cfg.initial.Resolve()
		if err != nil {
			return nil, &ResolveError{Err: err}
		}
		c.best = v
		c.hasBest = true
	}

	if c.st != nil {
		if cfg.resume {
			if err := c.hydrate(); err != nil {
				return nil, err
			}
		} else {
			// Fresh scope entry owns the directory: stale artifacts from
			// an earlier process must not leak in
			if err := c.st.Clear(); err != nil {
				return nil, fmt.Errorf("failed to clear checkpoint store: %w", err)
			}
		}
	}

	slog.Debug("Early stopping scope opened",
		"params", len(c.names),
		"direction", c.dir.String(),
		"checkpoints", c.st != nil,
	)
	return c, nil
}

// hydrate adopts the store's latest snapshot as the starting best state.
// A snapshot that does not beat an already-seeded initial metric is ignored.
func (c *Controller) hydrate() error {
	snap, err := c.st.LoadLatest()
	if err != nil {
		if errors.Is(err, store.ErrNoSnapshot) {
			return nil // Nothing to resume from, start fresh
		}
		return fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	if err := snap.Validate(c.names); err != nil {
		return fmt.Errorf("latest snapshot does not match tracked parameters: %w", err)
	}

	if !c.hasBest || c.dir.Better(snap.Metric, c.best) {
		c.best = snap.Metric
		c.hasBest = true
		c.snap = snap
		c.rounds = snap.Round
		slog.Info("Resumed from snapshot", "metric", snap.Metric, "round", snap.Round)
	} else {
		slog.Debug("Stored snapshot ignored, seeded metric is better",
			"stored", snap.Metric, "seeded", c.best)
	}
	return nil
}

// Update reports a freshly evaluated metric value. It returns true when the
// value supersedes the best seen so far, in which case the live parameter
// values have been captured (and mirrored to the checkpoint store when one
// is configured). Ties and worse values leave all state untouched.
func (c *Controller) Update(metricVal float64) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	return c.update(metricVal)
}

// UpdateValue is Update for lazily produced metrics.
// The value is resolved exactly once.
func (c *Controller) UpdateValue(v metric.Value) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	if v == nil {
		return false, &ResolveError{Err: fmt.Errorf("metric value is nil")}
	}

	metricVal, err := v.Resolve()
	if err != nil {
		return false, &ResolveError{Err: err}
	}
	return c.update(metricVal)
}

func (c *Controller) update(metricVal float64) (bool, error) {
	c.rounds++

	if c.hasBest && !c.dir.Better(metricVal, c.best) {
		slog.Debug("Metric did not improve",
			"metric", metricVal, "best", c.best, "round", c.rounds)
		return false, nil
	}

	values, err := c.access.Read(c.names)
	if err != nil {
		return false, fmt.Errorf("failed to read parameters: %w", err)
	}

	byName := make(map[string][]float64, len(c.names))
	for i, name := range c.names {
		byName[name] = values[i]
	}
	snap := store.NewSnapshot(metricVal, c.rounds, byName)

	// Persist first: if the durable write fails, the previous best stays
	// authoritative in memory and on disk
	if c.st != nil {
		if err := c.st.SaveLatest(snap); err != nil {
			return false, fmt.Errorf("failed to persist snapshot: %w", err)
		}
	}

	c.best = metricVal
	c.hasBest = true
	c.snap = snap

	slog.Debug("Metric improved", "metric", metricVal, "round", c.rounds)
	return true, nil
}

// BestMetric returns the best metric seen and whether one exists yet.
// It stays readable after Close so callers can report the outcome.
func (c *Controller) BestMetric() (float64, bool) {
	return c.best, c.hasBest
}

// BestRound returns the update ordinal that produced the current snapshot,
// or false when no snapshot has been captured.
func (c *Controller) BestRound() (int, bool) {
	if c.snap == nil {
		return 0, false
	}
	return c.snap.Round, true
}

// Rounds returns how many updates this controller has seen.
func (c *Controller) Rounds() int {
	return c.rounds
}

// Close ends the scope. cause is the error the surrounding work is exiting
// with, or nil on normal completion; the caller keeps ownership of cause
// and Close never returns it.
//
// Exit sequence:
//  1. Restore the snapshot's values over the tracked names (normal exit
//     always; error exit only with WithRestoreOnError; no snapshot means
//     nothing to restore).
//  2. Remove the checkpoint directory when cleanup is on, on both exit
//     kinds. With WithKeepCheckpoints only backend resources are released.
//
// On a normal exit, restore or cleanup failures are returned. On an error
// exit they are logged and suppressed so they cannot mask cause. A second
// Close returns ErrClosed.
func (c *Controller) Close(cause error) error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true

	var exitErr error

	restore := cause == nil || c.restoreOnError
	if restore && c.snap != nil {
		if err := c.restoreSnapshot(); err != nil {
			exitErr = err
		}
	}

	if c.st != nil {
		if c.cleanup {
			if err := c.st.Destroy(); err != nil {
				if exitErr == nil {
					exitErr = fmt.Errorf("failed to remove checkpoint directory: %w", err)
				} else {
					slog.Warn("Checkpoint cleanup failed", "error", err)
				}
			}
		} else {
			if err := store.CloseIfSupported(c.st); err != nil {
				if exitErr == nil {
					exitErr = fmt.Errorf("failed to release checkpoint store: %w", err)
				} else {
					slog.Warn("Checkpoint store release failed", "error", err)
				}
			}
		}
	}

	if cause != nil {
		if exitErr != nil {
			slog.Warn("Exit bookkeeping failed during error exit",
				"cause", cause, "error", exitErr)
		}
		return nil
	}
	return exitErr
}

// restoreSnapshot writes the captured values back, one vector per tracked
// name, in the order the names were given at Open.
func (c *Controller) restoreSnapshot() error {
	values := make([][]float64, len(c.names))
	for i, name := range c.names {
		v, ok := c.snap.Value(name)
		if !ok {
			return fmt.Errorf("snapshot missing parameter %q", name)
		}
		values[i] = v
	}

	if err := c.access.Write(c.names, values); err != nil {
		return fmt.Errorf("failed to restore parameters: %w", err)
	}

	slog.Debug("Restored best parameters",
		"metric", c.snap.Metric, "round", c.snap.Round)
	return nil
}

// errPanicked marks a panic unwinding through Run as an error exit.
var errPanicked = errors.New("panic during early stopping scope")

// Run executes body inside an early-stopping scope and guarantees the exit
// sequence on every path out: normal return, error return, and panic. A
// panic counts as an error exit (restore only with WithRestoreOnError),
// cleanup still runs, and the panic continues unwinding afterwards.
//
// The error returned by body is returned as-is and is never masked by a
// bookkeeping failure from Close; with a nil body error, Close's error is
// returned.
func Run(access ParamAccess, names []string, body func(*Controller) error, opts ...Option) (err error) {
	c, err := Open(access, names, opts...)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		cause := err
		if panicked && cause == nil {
			cause = errPanicked
		}
		if cerr := c.Close(cause); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = body(c)
	panicked = false
	return err
}
