package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// ErrNoRuns indicates no fetch run has been recorded yet.
var ErrNoRuns = errors.New("no fetch runs recorded")

// Store provides SQLite-backed persistence for fetch run records.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store, opening the SQLite database and running migrations
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("store initialized", "path", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// CreateFetchRun inserts a new FetchRun and sets its ID
func (s *Store) CreateFetchRun(run *FetchRun) error {
	const query = `
		INSERT INTO fetch_runs (
			start_time, end_time, release, arch, candidates, viable,
			repo_file, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		run.StartTime, run.EndTime, run.Release, run.Arch,
		run.Candidates, run.Viable, run.RepoFile, run.Status, run.ErrorMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// UpdateFetchRun updates an existing FetchRun by ID
func (s *Store) UpdateFetchRun(run *FetchRun) error {
	const query = `
		UPDATE fetch_runs SET
			start_time = ?, end_time = ?, release = ?, arch = ?,
			candidates = ?, viable = ?, repo_file = ?, status = ?,
			error_message = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(
		query,
		run.StartTime, run.EndTime, run.Release, run.Arch,
		run.Candidates, run.Viable, run.RepoFile, run.Status,
		run.ErrorMsg, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fetch run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("fetch run not found: %d", run.ID)
	}

	return nil
}

// AddMirrorRecords inserts the probed mirror rows for a run
func (s *Store) AddMirrorRecords(runID int64, records []MirrorRecord) error {
	const query = `
		INSERT INTO mirror_records (
			run_id, url, origin, outcome, latency_ms, throughput_bps,
			score, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, r := range records {
		if _, err := tx.Exec(
			query,
			runID, r.URL, r.Origin, r.Outcome, r.LatencyMs,
			r.ThroughputBps, r.Score, r.Position,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert mirror record for %s: %w", r.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mirror records: %w", err)
	}

	return nil
}

// LatestFetchRun returns the most recent fetch run, or ErrNoRuns.
func (s *Store) LatestFetchRun() (*FetchRun, error) {
	const query = `
		SELECT id, start_time, end_time, release, arch, candidates,
			viable, repo_file, status, error_message
		FROM fetch_runs
		ORDER BY id DESC
		LIMIT 1
	`

	run := &FetchRun{}
	err := s.db.QueryRow(query).Scan(
		&run.ID, &run.StartTime, &run.EndTime, &run.Release, &run.Arch,
		&run.Candidates, &run.Viable, &run.RepoFile, &run.Status,
		&run.ErrorMsg,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest fetch run: %w", err)
	}

	return run, nil
}

// MirrorRecordsForRun returns the mirror rows of a run, ranked mirrors
// first in rank order, then the rest by URL.
func (s *Store) MirrorRecordsForRun(runID int64) ([]MirrorRecord, error) {
	const query = `
		SELECT id, run_id, url, origin, outcome, latency_ms,
			throughput_bps, score, position
		FROM mirror_records
		WHERE run_id = ?
		ORDER BY CASE WHEN position > 0 THEN 0 ELSE 1 END, position, url
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirror records: %w", err)
	}
	defer rows.Close()

	var records []MirrorRecord
	for rows.Next() {
		var r MirrorRecord
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.URL, &r.Origin, &r.Outcome,
			&r.LatencyMs, &r.ThroughputBps, &r.Score, &r.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mirror record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mirror records: %w", err)
	}

	return records, nil
}
