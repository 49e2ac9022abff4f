package store

import "errors"

// Store defines the interface for persisting the latest best-state snapshot
// of one controller scope. A store owns exactly one directory and exactly one
// "latest" slot; saving replaces whatever was there before.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNoSnapshot from LoadLatest when no snapshot has been saved
//   - Return descriptive errors for I/O or serialization failures
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveLatest persists snap as the latest snapshot, replacing any
	// previous one. Implementations must write atomically (e.g., temp
	// file + rename) so a crash mid-save never corrupts an existing
	// snapshot.
	SaveLatest(snap *Snapshot) error

	// LoadLatest retrieves the latest snapshot.
	// Returns ErrNoSnapshot if none has been saved.
	LoadLatest() (*Snapshot, error)

	// Clear drops the latest snapshot, if any. The store stays usable;
	// a scope starting fresh calls this so stale state from an earlier
	// process cannot leak in.
	Clear() error

	// Destroy removes every artifact together with the directory holding
	// them. The store is unusable afterwards.
	Destroy() error
}

// ErrNoSnapshot is returned by LoadLatest when no snapshot has been saved.
// Use errors.Is(err, ErrNoSnapshot) to check for it.
var ErrNoSnapshot = errors.New("no snapshot saved")
