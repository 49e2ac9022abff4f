package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// resultFile is the per-run summary artifact.
const resultFile = "result.json"

// Result summarizes a search run.
type Result struct {
	RunID        string    `json:"runId"`
	Objective    string    `json:"objective"`
	Dimension    int       `json:"dimension"`
	Rounds       int       `json:"rounds"`
	BestMetric   float64   `json:"bestMetric"`
	BestRound    int       `json:"bestRound"`
	BestParams   []float64 `json:"bestParams"`
	StoppedEarly bool      `json:"stoppedEarly"`
	Resumed      bool      `json:"resumed"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// RunInfo describes one run directory, with its summary when present.
// Interrupted runs have no summary yet and fall back to the directory
// timestamp.
type RunInfo struct {
	RunID      string
	Timestamp  time.Time
	Rounds     int
	BestMetric float64
	HasResult  bool
}

// writeResult writes the summary atomically so a reader never sees a
// partial file.
func writeResult(runDir string, res *Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	path := filepath.Join(runDir, resultFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to commit result: %w", err)
	}
	return nil
}

// LoadResult reads the summary of a finished run from its directory.
func LoadResult(runDir string) (*Result, error) {
	data, err := os.ReadFile(filepath.Join(runDir, resultFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &res, nil
}

// ListRuns returns all run directories under dataDir, newest first.
func ListRuns(dataDir string) ([]RunInfo, error) {
	entries, err := os.ReadDir(filepath.Join(dataDir, "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var infos []RunInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info := RunInfo{RunID: entry.Name()}
		if res, err := LoadResult(RunDir(dataDir, entry.Name())); err == nil {
			info.Timestamp = res.FinishedAt
			info.Rounds = res.Rounds
			info.BestMetric = res.BestMetric
			info.HasResult = true
		} else if fi, err := entry.Info(); err == nil {
			info.Timestamp = fi.ModTime()
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Timestamp.After(infos[j].Timestamp)
	})
	return infos, nil
}

// DeleteRun removes a run directory and all its artifacts.
func DeleteRun(dataDir, runID string) error {
	return os.RemoveAll(RunDir(dataDir, runID))
}
