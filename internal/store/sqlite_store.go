package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// latestSlot keys the single snapshot row; saves upsert into it.
const latestSlot = "latest"

// SQLiteStore implements the Store interface on a SQLite database at
// <dir>/latest.db. The database holds at most one row, keyed by slot, so
// SaveLatest replaces rather than accumulates. SQLite's own journaling
// provides the atomic-replace guarantee the interface asks for.
type SQLiteStore struct {
	dir string
	db  *sql.DB
}

// NewSQLiteStore opens (creating if needed) the snapshot database under dir.
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	path := filepath.Join(dir, "latest.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			slot TEXT PRIMARY KEY,
			metric REAL NOT NULL,
			round INTEGER NOT NULL,
			captured_at TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &SQLiteStore{dir: dir, db: db}, nil
}

// Dir returns the directory owning the store's artifacts.
func (s *SQLiteStore) Dir() string {
	return s.dir
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	if s.db == nil {
		return nil, errors.New("snapshot database is closed")
	}
	return s.db, nil
}

// SaveLatest upserts snap into the latest slot.
func (s *SQLiteStore) SaveLatest(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(snap.Values)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot values: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO snapshots (slot, metric, round, captured_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			metric = excluded.metric,
			round = excluded.round,
			captured_at = excluded.captured_at,
			payload = excluded.payload
	`, latestSlot, snap.Metric, snap.Round, snap.CapturedAt.Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	slog.Debug("Snapshot saved", "metric", snap.Metric, "round", snap.Round, "backend", "sqlite")
	return nil
}

// LoadLatest reads the latest slot.
func (s *SQLiteStore) LoadLatest() (*Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var (
		metricVal  float64
		round      int
		capturedAt string
		payload    []byte
	)
	err = db.QueryRow(`
		SELECT metric, round, captured_at, payload FROM snapshots WHERE slot = ?
	`, latestSlot).Scan(&metricVal, &round, &capturedAt, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}

	var values map[string][]float64
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot values: %w", err)
	}

	return &Snapshot{
		Metric:     metricVal,
		Round:      round,
		CapturedAt: ts,
		Values:     values,
	}, nil
}

// Clear deletes the latest slot. The database stays usable.
func (s *SQLiteStore) Clear() error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	if _, err := db.Exec(`DELETE FROM snapshots WHERE slot = ?`, latestSlot); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}
	return nil
}

// Close releases the database handle. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Destroy closes the database and removes the store's directory.
func (s *SQLiteStore) Destroy() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot database: %w", err)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove checkpoint directory: %w", err)
	}

	slog.Debug("Checkpoint directory removed", "path", s.dir, "backend", "sqlite")
	return nil
}
