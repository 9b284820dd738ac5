package flow

import (
	"fmt"

	"github.com/routilux/routilux-go/flow/emit"
)

// Hook invocation wrappers. Hook implementations are external code: a
// panicking hook must never affect engine state, so every call site goes
// through one of these, which recover and report through the emitter.
// Intercepting hooks (the bool-returning ones) default to "continue" when
// they panic.

func (rt *Runtime) reportHookPanic(hook string, r interface{}) {
	rt.emitter.Emit(emit.Event{
		Msg: "hook_panic",
		Meta: map[string]interface{}{
			"hook":  hook,
			"error": fmt.Sprintf("%v", r),
		},
	})
}

func (rt *Runtime) safeOnWorkerStart(f *Flow, job *JobContext) {
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_worker_start", r)
		}
	}()
	Hooks().OnWorkerStart(f, job)
}

func (rt *Runtime) safeOnWorkerStop(f *Flow, job *JobContext, status string) {
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_worker_stop", r)
		}
	}()
	Hooks().OnWorkerStop(f, job, status)
}

func (rt *Runtime) safeOnJobStart(job *JobContext) {
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_job_start", r)
		}
	}()
	Hooks().OnJobStart(job)
}

func (rt *Runtime) safeOnJobEnd(job *JobContext, status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_job_end", r)
		}
	}()
	Hooks().OnJobEnd(job, status, err)
}

func (rt *Runtime) safeOnRoutineStart(routineID string, job *JobContext) (cont bool) {
	cont = true
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_routine_start", r)
		}
	}()
	return Hooks().OnRoutineStart(routineID, job)
}

func (rt *Runtime) safeOnRoutineEnd(routineID string, job *JobContext, status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_routine_end", r)
		}
	}()
	Hooks().OnRoutineEnd(routineID, job, status, err)
}

func (rt *Runtime) safeOnEventEmit(ev *Event, sourceRoutineID string, job *JobContext, data map[string]interface{}) (cont bool) {
	cont = true
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_event_emit", r)
		}
	}()
	return Hooks().OnEventEmit(ev, sourceRoutineID, job, data)
}

func (rt *Runtime) safeOnSlotBeforeEnqueue(slot *Slot, routineID string, job *JobContext, data map[string]interface{}, flowID string) (ok bool, reason string) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			rt.reportHookPanic("on_slot_before_enqueue", r)
		}
	}()
	return Hooks().OnSlotBeforeEnqueue(slot, routineID, job, data, flowID)
}
