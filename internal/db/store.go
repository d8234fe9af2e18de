package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bidscout/bidscout/internal/artifacts"
)

// RunRecord is one row of run history.
type RunRecord struct {
	RunID             string
	CreatedAt         string
	FinishedAt        string
	RFPPath           string
	Company           string
	Status            string
	Iterations        int
	CoverageScore     float64
	RequirementsCount int
	EvidenceCount     int
	Errors            []string
}

// EventRecord is one timeline entry for a run.
type EventRecord struct {
	RunID   string
	At      string
	Stage   string
	Message string
}

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Store persists run history and timeline events. It satisfies the
// workflow engine's Recorder interface.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database handle.
func NewStore(handle *sql.DB) *Store {
	return &Store{db: handle}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunStarted inserts the run record in running state.
func (s *Store) RunStarted(ctx context.Context, runID, rfpPath, company string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, created_at, rfp_path, company, status) VALUES(?, ?, ?, ?, ?)`,
		runID, createdAt, rfpPath, company, StatusRunning); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RunEvent appends one timeline entry.
func (s *Store) RunEvent(ctx context.Context, runID, stage, message string) error {
	at := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events(run_id, at, stage, message) VALUES(?, ?, ?, ?)`,
		runID, at, stage, message); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RunFinished closes out the run record with the final summary.
func (s *Store) RunFinished(ctx context.Context, runID string, summary artifacts.Summary) error {
	status := StatusComplete
	if len(summary.Errors) > 0 {
		status = StatusFailed
	}
	finishedAt := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at=?, status=?, iterations=?, coverage_score=?, requirements_count=?, evidence_count=?, errors=?
		 WHERE run_id=?`,
		finishedAt, status, summary.Iterations, summary.CoverageScore,
		summary.RequirementsCount, summary.EvidenceCount, strings.Join(summary.Errors, "\n"), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// GetRun loads a single run.
func (s *Store) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, COALESCE(finished_at, ''), rfp_path, company, status,
		        iterations, coverage_score, requirements_count, evidence_count, errors
		 FROM runs WHERE run_id=?`, runID)
	return scanRun(row)
}

// ListRuns returns runs newest first, up to limit (0 means all).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT run_id, created_at, COALESCE(finished_at, ''), rfp_path, company, status,
	                 iterations, coverage_score, requirements_count, evidence_count, errors
	          FROM runs ORDER BY created_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// ListEvents returns a run's timeline oldest first.
func (s *Store) ListEvents(ctx context.Context, runID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, at, stage, message FROM events WHERE run_id=? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRecord
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.RunID, &ev.At, &ev.Stage, &ev.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// DeleteRun removes a run and its events.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id=?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Prunable returns run ids eligible for deletion under the retention
// policy: everything past the newest keepLast runs, plus anything
// finished more than keepDays ago. Zero values disable the respective
// rule.
func (s *Store) Prunable(ctx context.Context, keepLast, keepDays int) ([]string, error) {
	records, err := s.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}

	var cutoff string
	if keepDays > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -keepDays).Format(time.RFC3339)
	}

	var prunable []string
	kept := 0
	for _, record := range records {
		if record.Status == StatusRunning {
			continue
		}
		prune := false
		if keepLast > 0 {
			if kept >= keepLast {
				prune = true
			} else {
				kept++
			}
		}
		if !prune && cutoff != "" && record.CreatedAt < cutoff {
			prune = true
		}
		if prune {
			prunable = append(prunable, record.RunID)
		}
	}
	return prunable, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var record RunRecord
	var errs string
	if err := row.Scan(&record.RunID, &record.CreatedAt, &record.FinishedAt, &record.RFPPath,
		&record.Company, &record.Status, &record.Iterations, &record.CoverageScore,
		&record.RequirementsCount, &record.EvidenceCount, &errs); err != nil {
		return record, fmt.Errorf("scan run: %w", err)
	}
	if errs != "" {
		record.Errors = strings.Split(errs, "\n")
	}
	return record, nil
}
