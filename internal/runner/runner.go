// Package runner drives the optimizer search loop under early stopping.
package runner

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/earlystop/internal/config"
	"github.com/cwbudde/earlystop/internal/earlystop"
	"github.com/cwbudde/earlystop/internal/metric"
	"github.com/cwbudde/earlystop/internal/objective"
	"github.com/cwbudde/earlystop/internal/opt"
	"github.com/cwbudde/earlystop/internal/param"
	"github.com/cwbudde/earlystop/internal/store"
)

// paramName is the single tracked parameter vector of a run.
const paramName = "theta"

// Run executes a search run and writes its artifacts under
// <data_dir>/runs/<run-id>/. A non-empty resumeID reuses that run's
// directory and continues from its checkpoint.
//
// Each round restarts the optimizer from a fresh seeded population, writes
// the candidate into the live parameter store and reports its validation
// metric to the early-stopping scope. On normal exit the scope restores the
// best candidate, so the returned result reads it straight from the store.
func Run(cfg *config.Config, resumeID string) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runID := resumeID
	resumed := resumeID != ""
	if runID == "" {
		runID = uuid.New().String()
	}
	runDir := RunDir(cfg.DataDir, runID)
	if resumed {
		if _, err := os.Stat(runDir); err != nil {
			return nil, fmt.Errorf("cannot resume run %s: %w", runID, err)
		}
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	fn, err := objective.ByName(cfg.Run.Objective)
	if err != nil {
		return nil, err
	}

	dim := cfg.Run.Dimension
	params := param.NewStore()
	if err := params.Register(paramName, make([]float64, dim)); err != nil {
		return nil, err
	}

	direction := metric.Minimize
	if cfg.Run.Maximize {
		direction = metric.Maximize
	}

	// The optimizer trains on the clean objective; the validation metric
	// may add noise on top
	noiseRng := rand.New(rand.NewSource(cfg.Run.Seed))
	validate := objective.WithNoise(fn, cfg.Run.Noise, noiseRng)

	opts := []earlystop.Option{earlystop.WithDirection(direction)}
	if cfg.Run.InitialMetric != nil {
		opts = append(opts, earlystop.WithInitialMetric(*cfg.Run.InitialMetric))
	}
	if cfg.Checkpoint.Enabled {
		ckptDir := cfg.Checkpoint.Dir
		if ckptDir == "" {
			ckptDir = filepath.Join(runDir, "checkpoint")
		}
		st, err := store.Open(cfg.Checkpoint.Backend, ckptDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		opts = append(opts, earlystop.WithCheckpoints(st))
		if cfg.Checkpoint.Keep {
			opts = append(opts, earlystop.WithKeepCheckpoints())
		}
		if cfg.Checkpoint.RestoreOnError {
			opts = append(opts, earlystop.WithRestoreOnError())
		}
		if resumed {
			opts = append(opts, earlystop.WithResume())
		}
	}

	trace, err := store.NewTraceWriter(runDir, resumed)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer trace.Close()

	patience := earlystop.NewPatience(earlystop.PatienceConfig{
		Enabled:  cfg.Run.Patience > 0,
		Rounds:   cfg.Run.Patience,
		MinDelta: cfg.Run.MinDelta,
	}, direction)

	slog.Info("Starting search run",
		"run_id", runID,
		"objective", cfg.Run.Objective,
		"dimension", dim,
		"rounds", cfg.Run.Rounds,
		"resumed", resumed,
	)

	start := time.Now()
	stopped := false
	var esc *earlystop.Controller
	err = earlystop.Run(params, []string{paramName}, func(c *earlystop.Controller) error {
		esc = c
		for round := 1; round <= cfg.Run.Rounds; round++ {
			// Restart the optimizer with a fresh population each round
			optimizer := opt.NewMayfly(cfg.Optimizer.Iterations, cfg.Optimizer.Population, cfg.Run.Seed+int64(round))
			position, cost, err := optimizer.Run(fn, cfg.Run.Lower, cfg.Run.Upper, dim)
			if err != nil {
				return err
			}
			if err := params.Write([]string{paramName}, [][]float64{position}); err != nil {
				return err
			}

			metricVal := validate(position)
			improved, err := c.Update(metricVal)
			if err != nil {
				return err
			}

			best, _ := c.BestMetric()
			if err := trace.Write(store.TraceEntry{
				Round:     c.Rounds(),
				Metric:    metricVal,
				Best:      best,
				Improved:  improved,
				Timestamp: time.Now(),
			}); err != nil {
				return err
			}

			slog.Info("Round finished",
				"round", c.Rounds(),
				"cost", cost,
				"metric", metricVal,
				"best", best,
				"improved", improved,
			)

			if patience.Update(metricVal) {
				stopped = true
				break
			}
		}
		return nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("search run failed: %w", err)
	}

	// The scope restored the best parameters on the way out
	bestParams, _ := params.Get(paramName)

	res := &Result{
		RunID:        runID,
		Objective:    cfg.Run.Objective,
		Dimension:    dim,
		Rounds:       esc.Rounds(),
		BestParams:   bestParams,
		StoppedEarly: stopped,
		Resumed:      resumed,
		StartedAt:    start,
		FinishedAt:   time.Now(),
	}
	if best, ok := esc.BestMetric(); ok {
		res.BestMetric = best
	}
	if round, ok := esc.BestRound(); ok {
		res.BestRound = round
	}

	if err := writeResult(runDir, res); err != nil {
		return nil, err
	}

	slog.Info("Search run complete",
		"run_id", runID,
		"best_metric", res.BestMetric,
		"best_round", res.BestRound,
		"rounds", res.Rounds,
		"stopped_early", res.StoppedEarly,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// RunDir returns the artifact directory of a run.
func RunDir(dataDir, runID string) string {
	return filepath.Join(dataDir, "runs", runID)
}
