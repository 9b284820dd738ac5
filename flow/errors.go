// Package flow provides the core dataflow orchestration engine for Routilux-Go.
package flow

import "errors"

// ErrSlotQueueFull indicates a slot's bounded queue is at capacity and an
// enqueue was rejected. During event routing this is logged and delivery
// continues to sibling connections; it is never fatal to the job.
var ErrSlotQueueFull = errors.New("slot queue is full")

// ErrRuntimeShutdown indicates the Runtime has been shut down and no longer
// accepts Exec or Post calls.
var ErrRuntimeShutdown = errors.New("runtime is shut down")

// ErrJobCompleted indicates a Post targeted a job that has already been
// explicitly completed.
var ErrJobCompleted = errors.New("job is already completed")

// ErrJobAlreadyRunning indicates Start was called on an executor whose
// event loop is already live.
var ErrJobAlreadyRunning = errors.New("job is already running")

// FlowError is the typed error returned by graph construction, lookup, and
// state checks. Code is a stable machine-readable identifier; Message is
// human-readable detail.
//
// Codes map onto the engine's error taxonomy:
//   - "FLOW_NOT_FOUND", "ROUTINE_NOT_FOUND", "SLOT_NOT_FOUND",
//     "EVENT_NOT_FOUND", "JOB_NOT_FOUND": lookup failures
//   - "DUPLICATE_ROUTINE", "DUPLICATE_SLOT", "DUPLICATE_EVENT",
//     "ROUTINE_OWNED", "INVALID_CONNECTION", "INVALID_POOL_SIZE",
//     "INVALID_CONFIG", "INVALID_SNAPSHOT": configuration failures
//   - "FLOW_MISMATCH": state violations (posts to a completed job return
//     ErrJobCompleted instead)
type FlowError struct {
	// Message describes what went wrong.
	Message string

	// Code is a stable machine-readable error identifier.
	Code string
}

// Error returns the error message, implementing the error interface.
func (e *FlowError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// IsLookupError reports whether err is a FlowError with a *_NOT_FOUND code.
func IsLookupError(err error) bool {
	var fe *FlowError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Code {
	case "FLOW_NOT_FOUND", "ROUTINE_NOT_FOUND", "SLOT_NOT_FOUND", "EVENT_NOT_FOUND", "JOB_NOT_FOUND":
		return true
	}
	return false
}
