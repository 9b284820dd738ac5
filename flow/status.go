package flow

// ExecutionStatus is the lifecycle state of a job.
//
// Status transitions follow a fixed graph:
//
//	PENDING → RUNNING → {IDLE ↔ RUNNING}* → (COMPLETED | FAILED | CANCELLED)
//
// Terminal states have no outgoing edges: once a job is COMPLETED, FAILED,
// or CANCELLED its status never changes again.
type ExecutionStatus string

const (
	// StatusPending means the job has been created but not started.
	StatusPending ExecutionStatus = "pending"

	// StatusRunning means the job's event loop is live and work is
	// queued or in flight.
	StatusRunning ExecutionStatus = "running"

	// StatusIdle means the job reached quiescence (empty queue, no
	// in-flight activations) but remains alive and accepts further input.
	StatusIdle ExecutionStatus = "idle"

	// StatusPaused means the event loop is suspended; new tasks are
	// parked in the pending overflow until resume.
	StatusPaused ExecutionStatus = "paused"

	// StatusCompleted means the job was explicitly completed by the
	// caller. Further posts are rejected.
	StatusCompleted ExecutionStatus = "completed"

	// StatusFailed means the job hit an unhandled error or its timeout.
	StatusFailed ExecutionStatus = "failed"

	// StatusCancelled means the job was cancelled by the caller.
	StatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is one of the terminal states.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// RoutineStatus is the per-routine execution state tracked inside a job.
type RoutineStatus string

const (
	// RoutineIdle means the routine has no pending work.
	RoutineIdle RoutineStatus = "idle"

	// RoutineRunning means at least one activation of the routine is in flight.
	RoutineRunning RoutineStatus = "running"

	// RoutineCompleted means the routine's last activation finished cleanly.
	RoutineCompleted RoutineStatus = "completed"

	// RoutineFailed means the routine's last activation failed and the
	// error handler did not suppress the failure.
	RoutineFailed RoutineStatus = "failed"

	// RoutineSkipped means the last activation was dropped by a SKIP
	// error strategy or by a hook interception.
	RoutineSkipped RoutineStatus = "skipped"
)
