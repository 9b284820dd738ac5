package flow

import "time"

// jobTask is a unit of work on a JobExecutor's queue. Two kinds exist:
// enqueueTask delivers a payload into a slot and drives the activation
// check; eventRoutingTask resolves an emission's connections and fans out
// one enqueueTask per target slot.
type jobTask interface {
	isJobTask()
}

// enqueueTask delivers one payload into one slot. The slot enqueue, the
// pre-enqueue hook, and the activation-policy evaluation all run on the
// job's routing goroutine; only the logic invocation the policy triggers
// is handed to the shared worker pool.
type enqueueTask struct {
	slot        *Slot
	routineID   string
	data        map[string]interface{}
	emittedFrom string
	emittedAt   time.Time
	job         *JobContext
}

func (*enqueueTask) isJobTask() {}

// eventRoutingTask routes one emission to every connected slot. Routing
// runs on the job's event-loop goroutine so all routing decisions within a
// single job are totally ordered.
type eventRoutingTask struct {
	event     *Event
	payload   map[string]interface{}
	job       *JobContext
	runtime   *Runtime
	emittedAt time.Time
}

func (*eventRoutingTask) isJobTask() {}
