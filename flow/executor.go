package flow

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// defaultQueueDepth is the per-job task queue capacity.
	defaultQueueDepth = 1024

	// dequeueTimeout is how long the event loop waits for a task before
	// running its idle and timeout checks.
	dequeueTimeout = 100 * time.Millisecond

	// pausePollInterval is the busy-wait interval while paused.
	pausePollInterval = 10 * time.Millisecond
)

// JobExecutor isolates execution of one job. Each executor owns one task
// queue and one event-loop goroutine; that goroutine is the only one that
// touches the queue and performs event routing for the job, so all routing
// decisions within a single job are totally ordered.
//
// Task kinds:
//   - enqueueTask: deliver a payload into a slot, then drive the owning
//     routine's activation check. The activation's logic runs on the
//     shared Runtime worker pool; everything else stays on the loop.
//   - eventRoutingTask: resolve the emission's connections and fan out one
//     slot delivery per connection, on the loop goroutine itself.
//
// The event loop does not stop when the job goes IDLE; it keeps polling
// so late external posts are processed. It stops on Complete, Cancel,
// timeout, a STOP failure, or runtime shutdown.
type JobExecutor struct {
	flow    *Flow
	job     *JobContext
	runtime *Runtime
	timeout time.Duration

	tasks  chan jobTask
	stopCh chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	pending []jobTask // overflow while paused
	running bool
	paused  bool

	inflight  atomic.Int32 // activations running on the shared pool
	stopOnce  sync.Once
	startTime time.Time
}

func newJobExecutor(f *Flow, job *JobContext, rt *Runtime, timeout time.Duration, queueDepth int) *JobExecutor {
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	e := &JobExecutor{
		flow:    f,
		job:     job,
		runtime: rt,
		timeout: timeout,
		tasks:   make(chan jobTask, queueDepth),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	job.setExecutor(e)
	return e
}

// Start launches the event loop. All routines begin in IDLE, waiting for
// data via Runtime.Post; the job's status is RUNNING when Start returns.
//
// Returns ErrJobAlreadyRunning if the loop is already live.
func (e *JobExecutor) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("job %s: %w", e.job.JobID(), ErrJobAlreadyRunning)
	}
	e.running = true
	e.startTime = time.Now()
	e.mu.Unlock()

	e.job.setStatus(StatusRunning)
	e.job.markStarted(e.startTime)
	for _, routineID := range e.flow.RoutineIDs() {
		e.job.UpdateRoutineState(routineID, RoutineIdle, "")
	}

	e.runtime.safeOnJobStart(e.job)
	e.runtime.emitEvent(e.job, "", "job_start", nil)

	go e.loop()
	return nil
}

// enqueue submits a task to the job's queue. While paused, tasks are
// parked in the pending overflow and drained on resume. A full queue
// blocks the caller until space frees or the executor stops.
func (e *JobExecutor) enqueue(t jobTask) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return fmt.Errorf("job %s: %w", e.job.JobID(), ErrJobCompleted)
	}
	if e.paused {
		e.pending = append(e.pending, t)
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	select {
	case e.tasks <- t:
		return nil
	case <-e.stopCh:
		return fmt.Errorf("job %s: %w", e.job.JobID(), ErrJobCompleted)
	}
}

// enqueueFromLoop submits a task from the event-loop goroutine itself
// (routing fan-out). On a full queue the task is dispatched inline rather
// than blocking, which would deadlock the loop against itself.
func (e *JobExecutor) enqueueFromLoop(t jobTask) {
	select {
	case e.tasks <- t:
	default:
		e.dispatch(t)
	}
}

// loop is the event-loop main logic. Routing work done here must stay
// short (slot enqueue, hooks, pool submission) so the loop never becomes a
// bottleneck.
func (e *JobExecutor) loop() {
	defer close(e.done)

	for {
		if e.IsPaused() {
			select {
			case <-e.stopCh:
				return
			case <-time.After(pausePollInterval):
			}
			continue
		}

		if e.checkTimeout() {
			return
		}

		select {
		case <-e.stopCh:
			return
		case t := <-e.tasks:
			// Late input wakes an IDLE job back to RUNNING.
			if e.job.Status() == StatusIdle {
				e.job.setStatus(StatusRunning)
			}
			e.dispatch(t)
		case <-time.After(dequeueTimeout):
			e.idleCheck()
		}
	}
}

func (e *JobExecutor) dispatch(t jobTask) {
	switch task := t.(type) {
	case *eventRoutingTask:
		task.runtime.handleEventEmit(e, task.event, task.payload, task.job, task.emittedAt)
	case *enqueueTask:
		e.runtime.deliverToSlot(e, task.slot, task.routineID, task.data, task.emittedFrom, task.emittedAt, task.job)
	}
}

// beginActivation registers one in-flight activation on the shared pool.
func (e *JobExecutor) beginActivation() {
	e.inflight.Add(1)
}

// endActivation unregisters a finished activation and re-runs the idle
// check, since this may have been the last outstanding work.
func (e *JobExecutor) endActivation() {
	e.inflight.Add(-1)
	e.idleCheck()
}

// Inflight returns the number of activations currently running on the
// shared pool for this job.
func (e *JobExecutor) Inflight() int {
	return int(e.inflight.Load())
}

// QueueDepth returns the number of tasks waiting in the job's queue.
func (e *JobExecutor) QueueDepth() int {
	return len(e.tasks)
}

// idleCheck transitions the job to IDLE when it is quiescent: queue empty
// and no in-flight activations. Every routine still marked RUNNING is
// swept to IDLE first.
func (e *JobExecutor) idleCheck() {
	if len(e.tasks) > 0 || e.inflight.Load() > 0 {
		return
	}

	status := e.job.Status()
	if status.Terminal() || status == StatusPaused {
		return
	}

	for _, routineID := range e.flow.RoutineIDs() {
		if st, ok := e.job.RoutineState(routineID); ok && st.Status == RoutineRunning {
			e.job.UpdateRoutineState(routineID, RoutineIdle, "")
		}
	}

	if e.job.Status() == StatusRunning {
		// Re-verify quiescence after the sweep; a worker may have
		// queued new work meanwhile.
		if len(e.tasks) == 0 && e.inflight.Load() == 0 {
			e.job.setStatus(StatusIdle)
			e.runtime.emitEvent(e.job, "", "job_idle", nil)
		}
	}
}

// checkTimeout fails the job once its configured timeout elapses. Returns
// true if the loop should exit.
func (e *JobExecutor) checkTimeout() bool {
	if e.timeout <= 0 {
		return false
	}
	if time.Since(e.startTime) < e.timeout {
		return false
	}

	msg := fmt.Sprintf("job timed out after %s", e.timeout)
	if e.job.setStatus(StatusFailed) {
		e.job.setError(msg)
		e.job.markCompleted(time.Now())
		e.job.SetShared("error", msg)
		e.runtime.safeOnJobEnd(e.job, "failed", fmt.Errorf("%s", msg))
		e.runtime.emitEvent(e.job, "", "job_timeout", map[string]interface{}{
			"error":      msg,
			"timeout_ms": e.timeout.Milliseconds(),
		})
		e.runtime.markJobFinished(e.job)
	}
	e.shutdownLoop()
	return true
}

// Pause suspends the event loop. New tasks are parked in the pending
// overflow until Resume. Safe to call from any goroutine.
func (e *JobExecutor) Pause(reason string) {
	e.mu.Lock()
	if e.paused || !e.running {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.mu.Unlock()

	e.job.setStatus(StatusPaused)
	e.job.RecordExecution("", "paused", map[string]interface{}{"reason": reason})
	e.runtime.emitEvent(e.job, "", "job_paused", map[string]interface{}{"reason": reason})
}

// Resume lifts a pause and drains the pending overflow back into the live
// queue, preserving arrival order.
func (e *JobExecutor) Resume() {
	e.mu.Lock()
	if !e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = false
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	e.job.setStatus(StatusRunning)
	for _, t := range pending {
		select {
		case e.tasks <- t:
		case <-e.stopCh:
			return
		}
	}
	e.runtime.emitEvent(e.job, "", "job_resumed", nil)
}

// IsPaused reports whether the executor is paused.
func (e *JobExecutor) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// IsRunning reports whether the event loop is live and not paused.
func (e *JobExecutor) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running && !e.paused
}

// Cancel stops the job: status goes to CANCELLED, the event loop exits,
// and queued tasks are discarded. Activations already running on the pool
// finish naturally; their side effects may still land.
func (e *JobExecutor) Cancel(reason string) {
	if e.job.setStatus(StatusCancelled) {
		e.job.markCompleted(time.Now())
		if reason != "" {
			e.job.RecordExecution("", "cancelled", map[string]interface{}{"reason": reason})
		}
		e.runtime.safeOnJobEnd(e.job, "cancelled", nil)
		e.runtime.emitEvent(e.job, "", "job_cancelled", map[string]interface{}{"reason": reason})
		e.runtime.markJobFinished(e.job)
	}
	e.shutdownLoop()
	e.discardQueued()
}

// Complete is the user-initiated graceful shutdown. The event loop stops,
// the job becomes COMPLETED (unless already terminal), completed_at is
// stamped, and the end-of-job hook runs. Further posts to this job fail.
func (e *JobExecutor) Complete() {
	e.shutdownLoop()
	e.Wait(5 * time.Second)

	if e.job.setStatus(StatusCompleted) {
		e.job.markCompleted(time.Now())
		e.runtime.safeOnJobEnd(e.job, "completed", nil)
		e.runtime.emitEvent(e.job, "", "job_completed", nil)
		e.runtime.markJobFinished(e.job)
	}
}

// abort is the STOP-strategy path: the job has already been failed by the
// caller; stop the loop and abandon queued work.
func (e *JobExecutor) abort() {
	e.shutdownLoop()
	e.discardQueued()
}

// shutdownLoop stops the event loop. Idempotent.
func (e *JobExecutor) shutdownLoop() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// discardQueued drops every task still sitting in the queue or the paused
// overflow. Cancellation is immediate for queued tasks.
func (e *JobExecutor) discardQueued() {
	for {
		select {
		case <-e.tasks:
		default:
			e.mu.Lock()
			e.pending = nil
			e.mu.Unlock()
			return
		}
	}
}

// Wait blocks until the event loop has exited or the timeout elapses.
// A timeout of zero waits forever. Returns true if the loop exited.
func (e *JobExecutor) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-e.done
		return true
	}
	select {
	case <-e.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Job returns the job context bound to this executor.
func (e *JobExecutor) Job() *JobContext {
	return e.job
}

// Flow returns the flow this executor runs over.
func (e *JobExecutor) Flow() *Flow {
	return e.flow
}
