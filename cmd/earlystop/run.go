package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/earlystop/internal/config"
	"github.com/cwbudde/earlystop/internal/objective"
	"github.com/cwbudde/earlystop/internal/runner"
)

var (
	configPath     string
	dataDir        string
	objectiveName  string
	dimension      int
	lowerBound     float64
	upperBound     float64
	rounds         int
	iters          int
	popSize        int
	seed           int64
	noise          float64
	maximize       bool
	initialMetric  float64
	patienceRounds int
	minDelta       float64
	ckptBackend    string
	noCheckpoints  bool
	keepCkpts      bool
	restoreOnError bool
	resumeID       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an optimizer search under early stopping",
	Long: `Runs repeated mayfly searches over the chosen objective. Each round
restarts the optimizer, reports the candidate's validation metric and
keeps the best one. The run stops early once the metric stalls, and the
best parameters are restored and written to the run's result file.`,
	RunE: runSearch,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Config file path (YAML)")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "", "Base directory for run artifacts")
	runCmd.Flags().StringVar(&objectiveName, "objective", "", "Objective function: "+strings.Join(objective.Names(), ", "))
	runCmd.Flags().IntVar(&dimension, "dim", 0, "Parameter vector dimension")
	runCmd.Flags().Float64Var(&lowerBound, "lower", 0, "Lower search bound")
	runCmd.Flags().Float64Var(&upperBound, "upper", 0, "Upper search bound")
	runCmd.Flags().IntVar(&rounds, "rounds", 0, "Maximum optimizer restarts")
	runCmd.Flags().IntVar(&iters, "iters", 0, "Max iterations per round")
	runCmd.Flags().IntVar(&popSize, "pop", 0, "Population size (>= 20)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	runCmd.Flags().Float64Var(&noise, "noise", 0, "Gaussian noise stddev on the validation metric")
	runCmd.Flags().BoolVar(&maximize, "maximize", false, "Treat larger metrics as better")
	runCmd.Flags().Float64Var(&initialMetric, "initial-metric", 0, "Seed the best-metric record")
	runCmd.Flags().IntVar(&patienceRounds, "patience", 0, "Stale rounds before stopping (0 disables)")
	runCmd.Flags().Float64Var(&minDelta, "min-delta", 0, "Minimum relative improvement")
	runCmd.Flags().StringVar(&ckptBackend, "backend", "", "Checkpoint backend: fs, sqlite")
	runCmd.Flags().BoolVar(&noCheckpoints, "no-checkpoints", false, "Disable checkpoint persistence")
	runCmd.Flags().BoolVar(&keepCkpts, "keep-checkpoints", false, "Keep checkpoint artifacts after the run")
	runCmd.Flags().BoolVar(&restoreOnError, "restore-on-error", false, "Restore best parameters even on a failed run")
	runCmd.Flags().StringVar(&resumeID, "resume", "", "Resume the given run ID from its kept checkpoint")

	rootCmd.AddCommand(runCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	start := time.Now()
	res, err := runner.Run(cfg, resumeID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: best metric %.6f at round %d of %d (%s)\n",
		res.RunID, res.BestMetric, res.BestRound, res.Rounds,
		time.Since(start).Round(time.Millisecond))
	if res.StoppedEarly {
		fmt.Println("Stopped early: metric stalled.")
	}
	return nil
}

// applyFlagOverrides layers explicitly set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("objective") {
		cfg.Run.Objective = objectiveName
	}
	if flags.Changed("dim") {
		cfg.Run.Dimension = dimension
	}
	if flags.Changed("lower") {
		cfg.Run.Lower = lowerBound
	}
	if flags.Changed("upper") {
		cfg.Run.Upper = upperBound
	}
	if flags.Changed("rounds") {
		cfg.Run.Rounds = rounds
	}
	if flags.Changed("iters") {
		cfg.Optimizer.Iterations = iters
	}
	if flags.Changed("pop") {
		cfg.Optimizer.Population = popSize
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if flags.Changed("noise") {
		cfg.Run.Noise = noise
	}
	if flags.Changed("maximize") {
		cfg.Run.Maximize = maximize
	}
	if flags.Changed("initial-metric") {
		v := initialMetric
		cfg.Run.InitialMetric = &v
	}
	if flags.Changed("patience") {
		cfg.Run.Patience = patienceRounds
	}
	if flags.Changed("min-delta") {
		cfg.Run.MinDelta = minDelta
	}
	if flags.Changed("backend") {
		cfg.Checkpoint.Backend = ckptBackend
	}
	if flags.Changed("no-checkpoints") {
		cfg.Checkpoint.Enabled = !noCheckpoints
	}
	if flags.Changed("keep-checkpoints") {
		cfg.Checkpoint.Keep = keepCkpts
	}
	if flags.Changed("restore-on-error") {
		cfg.Checkpoint.RestoreOnError = restoreOnError
	}
}
