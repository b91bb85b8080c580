// Package storage persists analysis runs and their drawdown events in a
// local sqlite database. Each run is immutable once saved: re-analyzing a
// source appends a new run rather than rewriting an old one, so the history
// of a series stays queryable.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hydrolab/drawdown/internal/drawdown"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// Run describes one persisted analysis run.
type Run struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	SeriesLen  int       `json:"series_len"`
	Epsilon    float64   `json:"epsilon"`
	EventCount int       `json:"event_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store wraps the sqlite database handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Pass ":memory:" for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL keeps the watch loop's writes from blocking API reads.
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	const runs = `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			series_len INTEGER NOT NULL,
			epsilon REAL NOT NULL,
			event_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := s.db.Exec(runs); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	const events = `
		CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			peak_index INTEGER NOT NULL,
			peak_value REAL NOT NULL,
			trough_index INTEGER NOT NULL,
			trough_value REAL NOT NULL,
			recovery_index INTEGER NOT NULL,
			magnitude REAL NOT NULL,
			draining INTEGER NOT NULL,
			filling INTEGER NOT NULL,
			duration INTEGER NOT NULL,
			resolved INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);
	`
	if _, err := s.db.Exec(events); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// SaveRun persists a run and its events in one transaction. Events are
// validated before anything is written.
func (s *Store) SaveRun(run Run, events []drawdown.Event) error {
	if run.ID == "" {
		return errors.New("run ID must not be empty")
	}
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("invalid event at position %d: %w", i, err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, source, series_len, epsilon, event_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.SeriesLen, run.Epsilon, len(events), run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO events (run_id, position, peak_index, peak_value, trough_index,
		 trough_value, recovery_index, magnitude, draining, filling, duration, resolved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		resolved := 0
		if e.Resolved {
			resolved = 1
		}
		if _, err := stmt.Exec(
			run.ID, i, e.PeakIndex, e.PeakValue, e.TroughIndex, e.TroughValue,
			e.RecoveryIndex, e.Magnitude, e.Draining, e.Filling, e.Duration, resolved,
		); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT id, source, series_len, epsilon, event_count, created_at
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// LatestRun retrieves the most recently saved run.
func (s *Store) LatestRun() (Run, error) {
	row := s.db.QueryRow(
		`SELECT id, source, series_len, epsilon, event_count, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	return scanRun(row)
}

func scanRun(row *sql.Row) (Run, error) {
	var r Run
	var createdAt int64
	err := row.Scan(&r.ID, &r.Source, &r.SeriesLen, &r.Epsilon, &r.EventCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return r, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, source, series_len, epsilon, event_count, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Source, &r.SeriesLen, &r.Epsilon, &r.EventCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetEvents returns the events of a run in position order.
func (s *Store) GetEvents(runID string) ([]drawdown.Event, error) {
	rows, err := s.db.Query(
		`SELECT peak_index, peak_value, trough_index, trough_value, recovery_index,
		 magnitude, draining, filling, duration, resolved
		 FROM events WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []drawdown.Event
	for rows.Next() {
		var e drawdown.Event
		var resolved int
		if err := rows.Scan(
			&e.PeakIndex, &e.PeakValue, &e.TroughIndex, &e.TroughValue,
			&e.RecoveryIndex, &e.Magnitude, &e.Draining, &e.Filling, &e.Duration, &resolved,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Resolved = resolved != 0
		events = append(events, e)
	}
	return events, rows.Err()
}
