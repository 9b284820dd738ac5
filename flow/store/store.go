// Package store provides record stores for serialized flows and job
// execution summaries, consumed by monitoring and persistence
// collaborators. The engine itself never reads from a store; records flow
// one way, out of the core.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested flow or job record does not exist.
var ErrNotFound = errors.New("not found")

// FlowRecord is a persisted snapshot of a flow's static structure.
// Snapshot is the JSON form produced by flow.(*Flow).Serialize; runtime
// state never appears in it.
type FlowRecord struct {
	// FlowID is the flow's stable identifier.
	FlowID string `json:"flow_id"`

	// Name is the registry name the flow is resolvable under.
	Name string `json:"name"`

	// Snapshot is the serialized flow structure.
	Snapshot json.RawMessage `json:"snapshot"`

	// UpdatedAt is when this record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// JobRecord is a persisted summary of one job execution.
type JobRecord struct {
	// JobID is the job's unique identifier.
	JobID string `json:"job_id"`

	// FlowID identifies the flow the job ran over.
	FlowID string `json:"flow_id"`

	// Status is the job's lifecycle status at write time.
	Status string `json:"status"`

	// Error holds the failure message for failed jobs.
	Error string `json:"error,omitempty"`

	// StartedAt is when the job started; zero if never started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the job reached a terminal state; zero otherwise.
	CompletedAt time.Time `json:"completed_at"`

	// History is the serialized execution history.
	History json.RawMessage `json:"history,omitempty"`
}

// RecordStore persists flow snapshots and job summaries.
//
// Implementations:
//   - MemStore: in-memory, for tests and development.
//   - SQLiteStore: single-file database, zero setup.
//   - MySQLStore: shared relational database for production.
//
// All writes are upserts keyed by flow id / job id.
type RecordStore interface {
	// SaveFlow upserts a flow snapshot record.
	SaveFlow(ctx context.Context, rec FlowRecord) error

	// LoadFlow retrieves the snapshot record for a flow id.
	// Returns ErrNotFound if absent.
	LoadFlow(ctx context.Context, flowID string) (FlowRecord, error)

	// SaveJob upserts a job summary record.
	SaveJob(ctx context.Context, rec JobRecord) error

	// LoadJob retrieves the summary record for a job id.
	// Returns ErrNotFound if absent.
	LoadJob(ctx context.Context, jobID string) (JobRecord, error)

	// ListJobs retrieves all job records for a flow id, most recently
	// started first. An empty result is not an error.
	ListJobs(ctx context.Context, flowID string) ([]JobRecord, error)

	// Close releases the store's resources.
	Close() error
}
