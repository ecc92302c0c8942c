// Package storage provides SQLite-based persistence for simulation runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for the run journal.
type Store struct {
	db *sql.DB
}

// Run is one journaled simulation run.
type Run struct {
	ID           int64
	Project      string
	StageID      int
	Mode         string
	BossForm     int
	Frames       int    // Final stage age
	FinalHash    uint64 // State hash after the last frame
	PlayerAlive  bool   // False if the player was hit at least once
	Hits         int    // Frames in which the player was hit
	ScriptFaults int
	CreatedAt    time.Time
}

// StageStats aggregates the runs of one stage.
type StageStats struct {
	StageID int
	Runs    int
	Deaths  int // Runs where the player was hit
	LastRun time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project TEXT NOT NULL,
			stage_id INTEGER NOT NULL,
			mode TEXT NOT NULL,
			boss_form INTEGER NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL,
			final_hash TEXT NOT NULL,
			player_alive INTEGER NOT NULL,
			hits INTEGER NOT NULL DEFAULT 0,
			script_faults INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(project, stage_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a finished run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(r Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs
		 (project, stage_id, mode, boss_form, frames, final_hash, player_alive, hits, script_faults)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Project,
		r.StageID,
		r.Mode,
		r.BossForm,
		r.Frames,
		strconv.FormatUint(r.FinalHash, 16), // sqlite integers are signed
		r.PlayerAlive,
		r.Hits,
		r.ScriptFaults,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const runColumns = `id, project, stage_id, mode, boss_form, frames, final_hash,
	player_alive, hits, script_faults, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var hash string
	var createdAt any
	if err := row.Scan(
		&r.ID,
		&r.Project,
		&r.StageID,
		&r.Mode,
		&r.BossForm,
		&r.Frames,
		&hash,
		&r.PlayerAlive,
		&r.Hits,
		&r.ScriptFaults,
		&createdAt,
	); err != nil {
		return Run{}, err
	}

	h, err := strconv.ParseUint(hash, 16, 64)
	if err != nil {
		return Run{}, fmt.Errorf("bad hash %q: %w", hash, err)
	}
	r.FinalHash = h
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func (s *Store) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+`
		 FROM runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
}

// RunsForStage retrieves the runs of one stage, newest first.
func (s *Store) RunsForStage(project string, stageID, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+`
		 FROM runs
		 WHERE project = ? AND stage_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		project, stageID, limit,
	)
}

// RunByID retrieves a run by its ID. Returns nil if it does not exist.
func (s *Store) RunByID(id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return &r, nil
}

// StageStats retrieves per-stage statistics for a project.
func (s *Store) StageStats(project string) (map[int]*StageStats, error) {
	rows, err := s.db.Query(
		`SELECT stage_id, COUNT(*), SUM(CASE WHEN player_alive THEN 0 ELSE 1 END), MAX(created_at)
		 FROM runs
		 WHERE project = ?
		 GROUP BY stage_id`,
		project,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stage stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[int]*StageStats)
	for rows.Next() {
		var st StageStats
		var lastRun any
		if err := rows.Scan(&st.StageID, &st.Runs, &st.Deaths, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastRun = parseTime(lastRun)
		stats[st.StageID] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// ClearRuns deletes every run of a project.
func (s *Store) ClearRuns(project string) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE project = ?", project)
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}
