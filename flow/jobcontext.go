package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoutineState is the per-routine slice of a job's mutable state.
type RoutineState struct {
	// Status is the routine's current execution status within this job.
	Status RoutineStatus `json:"status"`

	// Error holds the last failure message, if any.
	Error string `json:"error,omitempty"`

	// UpdatedAt is when the state last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// ExecutionRecord is one append-only entry in a job's execution history.
//
// Actions written by the engine: "activation_check", "start", "completed",
// "error", "error_continued", "event_emit", "slot_data_received", "paused",
// "cancelled".
type ExecutionRecord struct {
	// RoutineID identifies the routine the record concerns.
	RoutineID string `json:"routine_id"`

	// Action is the lifecycle action recorded.
	Action string `json:"action"`

	// Timestamp is when the record was appended.
	Timestamp time.Time `json:"timestamp"`

	// Details carries action-specific payload keys.
	Details map[string]interface{} `json:"details,omitempty"`
}

// JobContext is the mutable per-execution state of one running instance of
// a Flow: status, per-routine status, execution history, shared data, and
// job-specific activation-policy overrides.
//
// All fields are guarded by a single per-job lock; contention is low. The
// back-references to the executor and runtime are set by the engine and
// never serialized.
type JobContext struct {
	mu sync.Mutex

	jobID  string
	flowID string

	status      ExecutionStatus
	startedAt   time.Time
	completedAt time.Time
	errMsg      string

	currentRoutineID string
	routineStates    map[string]RoutineState
	history          []ExecutionRecord
	sharedData       map[string]interface{}

	policyOverrides map[string]ActivationPolicy

	executor *JobExecutor
	runtime  *Runtime
}

// NewJobContext creates a fresh job context for the given flow with a
// unique job id and PENDING status.
func NewJobContext(flowID string) *JobContext {
	return &JobContext{
		jobID:           uuid.NewString(),
		flowID:          flowID,
		status:          StatusPending,
		routineStates:   make(map[string]RoutineState),
		sharedData:      make(map[string]interface{}),
		policyOverrides: make(map[string]ActivationPolicy),
	}
}

// JobID returns the job's unique identifier.
func (j *JobContext) JobID() string {
	return j.jobID
}

// FlowID returns the id of the flow the job executes.
func (j *JobContext) FlowID() string {
	return j.flowID
}

// Status returns the job's current lifecycle status.
func (j *JobContext) Status() ExecutionStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// setStatus transitions the job's status. Transitions out of a terminal
// state are refused: the status graph has no back-edges from COMPLETED,
// FAILED, or CANCELLED.
func (j *JobContext) setStatus(status ExecutionStatus) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}
	j.status = status
	return true
}

// Error returns the job's failure message, or "" when the job has not failed.
func (j *JobContext) Error() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errMsg
}

func (j *JobContext) setError(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errMsg = msg
}

// StartedAt returns when the job started, or the zero time if not started.
func (j *JobContext) StartedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.startedAt
}

func (j *JobContext) markStarted(at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.startedAt.IsZero() {
		j.startedAt = at
	}
}

// CompletedAt returns when the job reached a terminal state, or the zero
// time if it has not.
func (j *JobContext) CompletedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completedAt
}

func (j *JobContext) markCompleted(at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.completedAt = at
}

// CurrentRoutineID returns the routine most recently activated in this job.
func (j *JobContext) CurrentRoutineID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.currentRoutineID
}

func (j *JobContext) setCurrentRoutineID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentRoutineID = id
}

// RoutineState returns the state tracked for the given routine and whether
// any state has been recorded yet.
func (j *JobContext) RoutineState(routineID string) (RoutineState, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	st, ok := j.routineStates[routineID]
	return st, ok
}

// RoutineStates returns a snapshot of all per-routine states.
func (j *JobContext) RoutineStates() map[string]RoutineState {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[string]RoutineState, len(j.routineStates))
	for id, st := range j.routineStates {
		out[id] = st
	}
	return out
}

// UpdateRoutineState sets the status (and optional error message) for a
// routine within this job.
func (j *JobContext) UpdateRoutineState(routineID string, status RoutineStatus, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.routineStates[routineID] = RoutineState{
		Status:    status,
		Error:     errMsg,
		UpdatedAt: time.Now(),
	}
}

// RecordExecution appends a record to the job's execution history.
func (j *JobContext) RecordExecution(routineID, action string, details map[string]interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.history = append(j.history, ExecutionRecord{
		RoutineID: routineID,
		Action:    action,
		Timestamp: time.Now(),
		Details:   details,
	})
}

// History returns a copy of the job's execution history in append order.
func (j *JobContext) History() []ExecutionRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ExecutionRecord, len(j.history))
	copy(out, j.history)
	return out
}

// SetShared stores a value in the job's shared data bag. Safe to call from
// concurrently running activations.
func (j *JobContext) SetShared(key string, value interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sharedData[key] = value
}

// Shared returns a shared-data value and whether it is present.
func (j *JobContext) Shared(key string) (interface{}, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.sharedData[key]
	return v, ok
}

// SharedData returns a snapshot of the job's shared data bag.
func (j *JobContext) SharedData() map[string]interface{} {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[string]interface{}, len(j.sharedData))
	for k, v := range j.sharedData {
		out[k] = v
	}
	return out
}

// SetActivationPolicy installs a job-specific activation policy for one
// routine, overriding the routine's default for this job only. Overrides
// are process-local and never serialized.
func (j *JobContext) SetActivationPolicy(routineID string, policy ActivationPolicy) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if policy == nil {
		delete(j.policyOverrides, routineID)
		return
	}
	j.policyOverrides[routineID] = policy
}

// ActivationPolicyFor returns the job-specific override for a routine, or
// nil if none is installed.
func (j *JobContext) ActivationPolicyFor(routineID string) ActivationPolicy {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.policyOverrides[routineID]
}

// Executor returns the JobExecutor driving this job, or nil before Exec.
func (j *JobContext) Executor() *JobExecutor {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.executor
}

func (j *JobContext) setExecutor(e *JobExecutor) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.executor = e
}

// Runtime returns the Runtime currently driving this job, or nil.
func (j *JobContext) Runtime() *Runtime {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runtime
}

func (j *JobContext) setRuntime(rt *Runtime) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runtime = rt
}
