package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of RecordStore.
//
// Designed for:
//   - Production deployments where records outlive the process
//   - Multiple engine processes sharing one record database
//   - Audit trails and compliance requirements
//
// Security note: never hardcode credentials. Pass the DSN from the
// environment:
//
//	dsn := os.Getenv("MYSQL_DSN")
//	st, err := store.NewMySQLStore(dsn)
type MySQLStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewMySQLStore creates a MySQL-backed record store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Example:
//
//	user:pass@tcp(localhost:3306)/routilux?parseTime=true
//
// The store creates required tables if they don't exist and configures
// connection pooling. parseTime=true is required so TIMESTAMP columns
// scan into time.Time.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &MySQLStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS flow_records (
			flow_id    VARCHAR(255) PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			snapshot   JSON NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS job_records (
			job_id       VARCHAR(255) PRIMARY KEY,
			flow_id      VARCHAR(255) NOT NULL,
			status       VARCHAR(32) NOT NULL,
			error        TEXT,
			started_at   TIMESTAMP NULL,
			completed_at TIMESTAMP NULL,
			history      JSON,
			INDEX idx_job_records_flow (flow_id, started_at)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("store is closed")
	}
	return nil
}

// SaveFlow upserts a flow snapshot record.
func (s *MySQLStore) SaveFlow(ctx context.Context, rec FlowRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flow_records (flow_id, name, snapshot, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			snapshot = VALUES(snapshot),
			updated_at = VALUES(updated_at)`,
		rec.FlowID, rec.Name, string(rec.Snapshot), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save flow record: %w", err)
	}
	return nil
}

// LoadFlow retrieves a flow snapshot record by flow id.
func (s *MySQLStore) LoadFlow(ctx context.Context, flowID string) (FlowRecord, error) {
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
func (s *MySQLStore) SaveJob(ctx context.Context, rec JobRecord) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_records (job_id, flow_id, status, error, started_at, completed_at, history)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			error = VALUES(error),
			started_at = VALUES(started_at),
			completed_at = VALUES(completed_at),
			history = VALUES(history)`,
		rec.JobID, rec.FlowID, rec.Status, rec.Error,
		nullableTime(rec.StartedAt), nullableTime(rec.CompletedAt), nullableString(rec.History))
	if err != nil {
		return fmt.Errorf("failed to save job record: %w", err)
	}
	return nil
}

// LoadJob retrieves a job summary record by job id.
func (s *MySQLStore) LoadJob(ctx context.Context, jobID string) (JobRecord, error) {
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
func (s *MySQLStore) ListJobs(ctx context.Context, flowID string) ([]JobRecord, error) {
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
func (s *MySQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
