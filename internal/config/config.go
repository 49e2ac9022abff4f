// Package config handles run configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/earlystop/internal/objective"
)

// Config is the root configuration structure.
type Config struct {
	DataDir    string           `yaml:"data_dir"`
	Run        RunConfig        `yaml:"run"`
	Optimizer  OptimizerConfig  `yaml:"optimizer"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// RunConfig describes the validation loop around the optimizer.
type RunConfig struct {
	Objective string  `yaml:"objective"`
	Dimension int     `yaml:"dimension"`
	Lower     float64 `yaml:"lower"`
	Upper     float64 `yaml:"upper"`

	// Rounds is the number of optimizer restarts the loop may attempt
	Rounds int   `yaml:"rounds"`
	Seed   int64 `yaml:"seed"`

	// Noise adds Gaussian jitter to the validation metric.
	// Zero keeps the metric deterministic.
	Noise float64 `yaml:"noise"`

	// Maximize flips the comparison so larger metrics win
	Maximize bool `yaml:"maximize"`

	// InitialMetric seeds the best-so-far record.
	// A pointer distinguishes "not set" from an explicit 0.
	InitialMetric *float64 `yaml:"initial_metric"`

	// Patience is the number of stale rounds before stopping early.
	// Zero disables stall detection.
	Patience int     `yaml:"patience"`
	MinDelta float64 `yaml:"min_delta"`
}

// OptimizerConfig holds mayfly settings.
type OptimizerConfig struct {
	Iterations int `yaml:"iterations"`
	Population int `yaml:"population"`
}

// CheckpointConfig holds snapshot persistence settings.
type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend"`

	// Dir overrides the per-run checkpoint directory when set
	Dir string `yaml:"dir"`

	// Keep leaves the checkpoint artifacts in place after the run
	Keep bool `yaml:"keep"`

	RestoreOnError bool `yaml:"restore_on_error"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Run: RunConfig{
			Objective: "sphere",
			Dimension: 3,
			Lower:     -10,
			Upper:     10,
			Rounds:    8,
			Seed:      42,
			Patience:  3,
			MinDelta:  0.001,
		},
		Optimizer: OptimizerConfig{
			Iterations: 200,
			Population: 20,
		},
		Checkpoint: CheckpointConfig{
			Enabled: true,
			Backend: "fs",
		},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default if the path
// is empty or the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the run cannot work with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if _, err := objective.ByName(c.Run.Objective); err != nil {
		return err
	}
	if c.Run.Dimension < 1 {
		return fmt.Errorf("dimension must be at least 1, got %d", c.Run.Dimension)
	}
	if c.Run.Lower >= c.Run.Upper {
		return fmt.Errorf("lower bound %g must be below upper bound %g", c.Run.Lower, c.Run.Upper)
	}
	if c.Run.Rounds < 1 {
		return fmt.Errorf("rounds must be at least 1, got %d", c.Run.Rounds)
	}
	if c.Run.Noise < 0 {
		return fmt.Errorf("noise must not be negative, got %g", c.Run.Noise)
	}
	if c.Run.Patience < 0 {
		return fmt.Errorf("patience must not be negative, got %d", c.Run.Patience)
	}
	if c.Run.MinDelta < 0 {
		return fmt.Errorf("min_delta must not be negative, got %g", c.Run.MinDelta)
	}
	if c.Optimizer.Iterations < 1 {
		return fmt.Errorf("optimizer iterations must be at least 1, got %d", c.Optimizer.Iterations)
	}
	if c.Optimizer.Population < 20 {
		return fmt.Errorf("mayfly needs a population of at least 20, got %d", c.Optimizer.Population)
	}
	switch c.Checkpoint.Backend {
	case "", "fs", "sqlite":
	default:
		return fmt.Errorf("unsupported checkpoint backend: %s", c.Checkpoint.Backend)
	}
	return nil
}
