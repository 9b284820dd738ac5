package flow

import "time"

// Event is a named outbound emission point of a routine. A single emission
// carries an immutable payload map which fans out, verbatim, to every slot
// connected to the event.
//
// Emission never mutates slots directly: it enqueues an event-routing task
// on the owning job's queue, so all routing decisions for one job are
// serialized through that job's event loop.
type Event struct {
	name         string
	routine      *Routine
	outputParams []string
}

// Name returns the event's name, unique within its owning routine.
func (e *Event) Name() string {
	return e.name
}

// Routine returns the routine that owns this event.
func (e *Event) Routine() *Routine {
	return e.routine
}

// OutputParams returns the advisory list of payload keys this event emits.
// The engine does not enforce the schema.
func (e *Event) OutputParams() []string {
	out := make([]string, len(e.outputParams))
	copy(out, e.outputParams)
	return out
}

// Emit schedules the payload for routing within the given job.
//
// The payload is not copied; callers must not mutate it after emission.
// Returns a JOB_NOT_FOUND FlowError if the job has no executor, and an
// error wrapping ErrJobCompleted if the executor has stopped.
func (e *Event) Emit(payload map[string]interface{}, rt *Runtime, job *JobContext) error {
	executor := job.Executor()
	if executor == nil {
		return &FlowError{Message: "job " + job.JobID() + " has no executor", Code: "JOB_NOT_FOUND"}
	}
	return executor.enqueue(&eventRoutingTask{
		event:     e,
		payload:   payload,
		job:       job,
		runtime:   rt,
		emittedAt: time.Now(),
	})
}
