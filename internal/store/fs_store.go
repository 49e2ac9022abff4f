package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements the Store interface on the local filesystem.
// The latest snapshot lives in a single JSON artifact named "latest" inside
// the store's directory, so its presence is checkable by plain path
// existence without parsing anything.
//
// Thread-safety: writes use atomic file operations (temp file + rename) and
// need no locks.
type FSStore struct {
	dir string // Directory owning the latest artifact
}

// NewFSStore creates a filesystem-backed store rooted at dir.
// The directory is created if it doesn't exist.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &FSStore{
		dir: dir,
	}, nil
}

// Dir returns the directory owning the store's artifacts.
func (fs *FSStore) Dir() string {
	return fs.dir
}

// LatestPath returns the path of the latest snapshot artifact.
func (fs *FSStore) LatestPath() string {
	return filepath.Join(fs.dir, "latest")
}

// SaveLatest atomically replaces the latest artifact with snap.
// Uses temp file + rename so a failure mid-write never corrupts an
// existing snapshot.
func (fs *FSStore) SaveLatest(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	// Ensure the directory still exists
	if err := os.MkdirAll(fs.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	tempPath := fs.LatestPath() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, fs.LatestPath()); err != nil {
		// Clean up temp file on failure
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	slog.Debug("Snapshot saved", "metric", snap.Metric, "round", snap.Round, "path", fs.LatestPath())
	return nil
}

// LoadLatest reads the latest artifact.
func (fs *FSStore) LoadLatest() (*Snapshot, error) {
	path := fs.LatestPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}

	slog.Debug("Snapshot loaded", "metric", snap.Metric, "round", snap.Round, "path", path)
	return &snap, nil
}

// Clear removes the latest artifact if present. The store stays usable.
func (fs *FSStore) Clear() error {
	if err := os.Remove(fs.LatestPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot file: %w", err)
	}
	return nil
}

// Destroy removes the store's directory and everything in it.
func (fs *FSStore) Destroy() error {
	if err := os.RemoveAll(fs.dir); err != nil {
		return fmt.Errorf("failed to remove checkpoint directory: %w", err)
	}

	slog.Debug("Checkpoint directory removed", "path", fs.dir)
	return nil
}
