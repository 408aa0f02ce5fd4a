package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// RunStore records runs and their window stats in a sqlite database, so
// sweeps over many seeds and configs can be queried after the fact.
type RunStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// RunInfo describes one recorded run.
type RunInfo struct {
	ID        string
	Seed      int64
	Config    string
	StartedAt time.Time
	EndedAt   time.Time // zero while running
	Ticks     uint64
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// OpenRunStore opens (creating if needed) the database at path.
// Returns nil if path is empty (store disabled).
func OpenRunStore(ctx context.Context, path string) (*RunStore, error) {
	if path == "" {
		return nil, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	if err := createRunTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating run tables: %w", err)
	}
	return &RunStore{path: path, db: db}, nil
}

var runSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		seed       INTEGER NOT NULL,
		config     TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at   INTEGER,
		ticks      INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS windows (
		run_id             TEXT NOT NULL REFERENCES runs(id),
		window_end         INTEGER NOT NULL,
		sim_time           REAL NOT NULL,
		agents             INTEGER NOT NULL,
		total_mass         REAL NOT NULL,
		max_cell           REAL NOT NULL,
		contrast           REAL NOT NULL,
		separation         REAL NOT NULL,
		heading_dispersion REAL NOT NULL,
		skipped_ticks      INTEGER NOT NULL,
		failed_ticks       INTEGER NOT NULL,
		agent_degenerate   INTEGER NOT NULL,
		field_degenerate   INTEGER NOT NULL,
		PRIMARY KEY (run_id, window_end)
	)`,
}

func createRunTables(ctx context.Context, db *sql.DB) error {
	for _, stmt := range runSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *RunStore) getDB() (*sql.DB, error) {
	if s == nil {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, errors.New("run store is closed")
	}
	return s.db, nil
}

// BeginRun records the start of a run.
func (s *RunStore) BeginRun(ctx context.Context, runID string, seed int64, configYAML []byte) error {
	db, err := s.getDB()
	if db == nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, config, started_at)
		VALUES (?, ?, ?, ?)
	`, runID, seed, string(configYAML), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

// RecordWindow stores one window of stats for runID.
func (s *RunStore) RecordWindow(ctx context.Context, runID string, w WindowStats) error {
	db, err := s.getDB()
	if db == nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO windows (
			run_id, window_end, sim_time, agents, total_mass, max_cell, contrast,
			separation, heading_dispersion, skipped_ticks, failed_ticks,
			agent_degenerate, field_degenerate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, window_end) DO NOTHING
	`, runID, int64(w.WindowEndTick), w.SimTimeSec, w.Agents, w.TotalMass, w.MaxCell, w.Contrast,
		w.Separation, w.HeadingDispersion, int64(w.SkippedTicks), int64(w.FailedTicks),
		int64(w.AgentDegenerate), int64(w.FieldDegenerate))
	if err != nil {
		return fmt.Errorf("record window %d: %w", w.WindowEndTick, err)
	}
	return nil
}

// EndRun marks runID as finished after ticks ticks.
func (s *RunStore) EndRun(ctx context.Context, runID string, ticks uint64) error {
	db, err := s.getDB()
	if db == nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		UPDATE runs SET ended_at = ?, ticks = ? WHERE id = ?
	`, time.Now().UnixMilli(), int64(ticks), runID)
	if err != nil {
		return fmt.Errorf("end run %s: %w", runID, err)
	}
	return nil
}

// Run returns the recorded metadata of runID.
func (s *RunStore) Run(ctx context.Context, runID string) (RunInfo, bool, error) {
	db, err := s.getDB()
	if db == nil {
		return RunInfo{}, false, err
	}

	var (
		info    RunInfo
		started int64
		ended   sql.NullInt64
		ticks   int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, seed, config, started_at, ended_at, ticks FROM runs WHERE id = ?
	`, runID).Scan(&info.ID, &info.Seed, &info.Config, &started, &ended, &ticks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunInfo{}, false, nil
		}
		return RunInfo{}, false, err
	}
	info.StartedAt = time.UnixMilli(started)
	if ended.Valid {
		info.EndedAt = time.UnixMilli(ended.Int64)
	}
	info.Ticks = uint64(ticks)
	return info, true, nil
}

// Windows returns the stored windows of runID ordered by tick.
func (s *RunStore) Windows(ctx context.Context, runID string) ([]WindowStats, error) {
	db, err := s.getDB()
	if db == nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT window_end, sim_time, agents, total_mass, max_cell, contrast,
			separation, heading_dispersion, skipped_ticks, failed_ticks,
			agent_degenerate, field_degenerate
		FROM windows WHERE run_id = ? ORDER BY window_end
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WindowStats
	for rows.Next() {
		var (
			w                    WindowStats
			end, skipped, failed int64
			agentDeg, fieldDeg   int64
		)
		if err := rows.Scan(&end, &w.SimTimeSec, &w.Agents, &w.TotalMass, &w.MaxCell, &w.Contrast,
			&w.Separation, &w.HeadingDispersion, &skipped, &failed, &agentDeg, &fieldDeg); err != nil {
			return nil, err
		}
		w.RunID = runID
		w.WindowEndTick = uint64(end)
		w.SkippedTicks = uint64(skipped)
		w.FailedTicks = uint64(failed)
		w.AgentDegenerate = uint64(agentDeg)
		w.FieldDegenerate = uint64(fieldDeg)
		out = append(out, w)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (s *RunStore) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the database. Safe on a nil store.
func (s *RunStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
