package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of RecordStore.
//
// It stores flow snapshots and job summaries in a single-file database.
// Designed for:
//   - Development and testing with zero setup
//   - Single-process deployments
//   - Local tooling that needs records to survive restarts
//
// The store automatically creates required tables on open and enables WAL
// mode so readers don't block behind the single writer.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	path   string
}

// NewSQLiteStore creates a SQLite-backed record store.
//
// The path parameter specifies the database file location:
//   - "./records.db" - file in current directory
//   - ":memory:" - in-memory database (data lost on close)
//
// Example:
//
//	st, err := store.NewSQLiteStore("./records.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() { _ = st.Close() }()
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`CREATE TABLE IF NOT EXISTS flow_records (
			flow_id    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			snapshot   TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS job_records (
			job_id       TEXT PRIMARY KEY,
			flow_id      TEXT NOT NULL,
			status       TEXT NOT NULL,
			error        TEXT NOT NULL DEFAULT '',
			started_at   TIMESTAMP,
			completed_at TIMESTAMP,
			history      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_records_flow ON job_records(flow_id, started_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("store is closed")
	}
	return nil
}

// SaveFlow upserts a flow snapshot record.
func (s *SQLiteStore) SaveFlow(ctx context.Context, rec FlowRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flow_records (flow_id, name, snapshot, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(flow_id) DO UPDATE SET
			name = excluded.name,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		rec.FlowID, rec.Name, string(rec.Snapshot), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save flow record: %w", err)
	}
	return nil
}

// LoadFlow retrieves a flow snapshot record by flow id.
func (s *SQLiteStore) LoadFlow(ctx context.Context, flowID string) (FlowRecord, error) {
	if err := s.checkOpen(); err != nil {
		return FlowRecord{}, err
	}
	var rec FlowRecord
	var snapshot string
	err := s.db.QueryRowContext(ctx, `
		SELECT flow_id, name, snapshot, updated_at
		FROM flow_records WHERE flow_id = ?`, flowID).
		Scan(&rec.FlowID, &rec.Name, &snapshot, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return FlowRecord{}, ErrNotFound
	}
	if err != nil {
		return FlowRecord{}, fmt.Errorf("failed to load flow record: %w", err)
	}
	rec.Snapshot = []byte(snapshot)
	return rec, nil
}

// SaveJob upserts a job summary record.
func (s *SQLiteStore) SaveJob(ctx context.Context, rec JobRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_records (job_id, flow_id, status, error, started_at, completed_at, history)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			error = excluded.error,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			history = excluded.history`,
		rec.JobID, rec.FlowID, rec.Status, rec.Error,
		nullableTime(rec.StartedAt), nullableTime(rec.CompletedAt), string(rec.History))
	if err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}
	return nil
}

// LoadJob retrieves a job summary record by job id.
func (s *SQLiteStore) LoadJob(ctx context.Context, jobID string) (JobRecord, error) {
	if err := s.checkOpen(); err != nil {
		return JobRecord{}, err
	}
	rec, err := scanJob(s.db.QueryRowContext(ctx, `
		SELECT job_id, flow_id, status, error, started_at, completed_at, history
		FROM job_records WHERE job_id = ?`, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return JobRecord{}, ErrNotFound
	}
	if err != nil {
		return JobRecord{}, fmt.Errorf("failed to load job record: %w", err)
	}
	return rec, nil
}

// ListJobs retrieves all job records for a flow, most recently started first.
func (s *SQLiteStore) ListJobs(ctx context.Context, flowID string) ([]JobRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT job_id, flow_id, status, error, started_at, completed_at, history
		FROM job_records WHERE flow_id = ?
		ORDER BY started_at DESC`, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection. Idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (JobRecord, error) {
	var rec JobRecord
	var startedAt, completedAt sql.NullTime
	var history sql.NullString
	if err := row.Scan(&rec.JobID, &rec.FlowID, &rec.Status, &rec.Error,
		&startedAt, &completedAt, &history); err != nil {
		return JobRecord{}, err
	}
	if startedAt.Valid {
		rec.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		rec.CompletedAt = completedAt.Time
	}
	if history.Valid {
		rec.History = []byte(history.String)
	}
	return rec, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
