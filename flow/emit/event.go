package emit

// Event represents an observability event emitted during job execution.
//
// Events provide detailed insight into engine behavior:
//   - Routine activation start/end
//   - Event emission and slot delivery
//   - Queue-full drops and other delivery warnings
//   - Job lifecycle transitions (running, idle, completed, failed)
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Store in memory for test inspection
//   - Forward to structured loggers
type Event struct {
	// JobID identifies the job execution that emitted this event.
	JobID string

	// FlowID identifies the flow graph the job runs over.
	FlowID string

	// RoutineID identifies which routine this event concerns.
	// Empty string for job-level events.
	RoutineID string

	// Msg is a short machine-matchable description of the event,
	// e.g. "routine_start", "slot_queue_full", "job_idle".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": Activation duration in milliseconds
	//   - "error": Error details
	//   - "slot": Slot name for delivery events
	//   - "event": Event name for emission events
	//   - "attempt": Retry attempt number
	Meta map[string]interface{}
}
