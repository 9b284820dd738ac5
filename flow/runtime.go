package flow

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/routilux/routilux-go/flow/emit"
)

const (
	// defaultThreadPoolSize is the shared worker pool size.
	defaultThreadPoolSize = 10

	// largePoolWarnThreshold is where pool sizing stops being useful and
	// starts being a resource hazard; crossing it emits a warning.
	largePoolWarnThreshold = 1000

	// jobPollInterval is the cadence of WaitUntilAllJobsFinished.
	jobPollInterval = 100 * time.Millisecond

	// defaultWaitCap bounds WaitUntilAllJobsFinished when the caller
	// passes no timeout.
	defaultWaitCap = time.Hour
)

// Runtime is the centralized execution manager: it owns the shared worker
// pool, the job registry, the event router, and the routine activation
// driver.
//
// Key behaviors:
//   - Exec is non-blocking: it starts a job's event loop and returns.
//   - Post is the only way to inject data from outside.
//   - Routine logic runs on the shared pool; routing and activation-policy
//     evaluation run on each job's own event-loop goroutine.
//
// Lock ordering across the engine: Runtime locks → Flow config lock →
// JobContext lock → Slot lock. No component takes locks in the opposite
// order, and no Runtime lock is held across an external call.
type Runtime struct {
	poolSize       int
	queueDepth     int
	defaultTimeout time.Duration

	emitter emit.Emitter
	metrics *RuntimeMetrics
	flows   *FlowRegistry
	jobs    *JobRegistry

	sem chan struct{} // shared pool capacity

	jobMu      sync.Mutex
	activeJobs map[string]*JobContext

	monitorMu      sync.Mutex
	activeRoutines map[string]map[string]struct{}
	threadCounts   map[string]map[string]int

	shutdownMu sync.Mutex
	isShutdown bool
}

// NewRuntime creates a Runtime.
//
// Returns a configuration error if the thread pool size is below 1.
func NewRuntime(opts ...Option) (*Runtime, error) {
	cfg := &runtimeConfig{
		threadPoolSize: defaultThreadPoolSize,
		queueDepth:     defaultQueueDepth,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.threadPoolSize < 1 {
		return nil, &FlowError{
			Message: fmt.Sprintf("thread pool size must be at least 1, got %d", cfg.threadPoolSize),
			Code:    "INVALID_POOL_SIZE",
		}
	}
	if cfg.emitter == nil {
		cfg.emitter = emit.NewNullEmitter()
	}
	if cfg.flows == nil {
		cfg.flows = DefaultFlowRegistry()
	}
	if cfg.jobs == nil {
		cfg.jobs = DefaultJobRegistry()
	}

	rt := &Runtime{
		poolSize:       cfg.threadPoolSize,
		queueDepth:     cfg.queueDepth,
		defaultTimeout: cfg.executionTimeout,
		emitter:        cfg.emitter,
		metrics:        cfg.metrics,
		flows:          cfg.flows,
		jobs:           cfg.jobs,
		sem:            make(chan struct{}, cfg.threadPoolSize),
		activeJobs:     make(map[string]*JobContext),
		activeRoutines: make(map[string]map[string]struct{}),
		threadCounts:   make(map[string]map[string]int),
	}

	if cfg.threadPoolSize > largePoolWarnThreshold {
		rt.emitter.Emit(emit.Event{
			Msg: "large_thread_pool",
			Meta: map[string]interface{}{
				"thread_pool_size": cfg.threadPoolSize,
			},
		})
	}

	return rt, nil
}

// Exec starts executing the named flow and returns immediately.
//
// A new JobContext is created unless an existing one is supplied (for
// resumption), in which case its flow_id must match the flow. The returned
// job's status is RUNNING.
//
// All routines start IDLE; data arrives via Post.
func (rt *Runtime) Exec(flowName string, existing *JobContext) (*JobContext, error) {
	if rt.isShutDown() {
		return nil, ErrRuntimeShutdown
	}

	f := rt.lookupFlow(flowName)
	if f == nil {
		return nil, &FlowError{Message: "flow not found: " + flowName, Code: "FLOW_NOT_FOUND"}
	}

	job := existing
	if job == nil {
		job = NewJobContext(f.FlowID())
	} else {
		if job.FlowID() != f.FlowID() {
			return nil, &FlowError{
				Message: fmt.Sprintf("job flow_id (%s) does not match flow (%s)", job.FlowID(), f.FlowID()),
				Code:    "FLOW_MISMATCH",
			}
		}
		if job.Status().Terminal() {
			return nil, fmt.Errorf("job %s: %w", job.JobID(), ErrJobCompleted)
		}
	}
	job.setRuntime(rt)

	timeout := f.ExecutionTimeout()
	if timeout == 0 {
		timeout = rt.defaultTimeout
	}

	executor := newJobExecutor(f, job, rt, timeout, rt.queueDepth)
	if err := executor.Start(); err != nil {
		return nil, err
	}

	rt.jobMu.Lock()
	rt.activeJobs[job.JobID()] = job
	rt.jobMu.Unlock()
	rt.jobs.Register(job)

	return job, nil
}

// Post sends external data to a specific routine's slot.
//
// With an empty jobID a new job is created via Exec. With a jobID the job
// is looked up and must not be COMPLETED: posts to completed jobs fail
// with ErrJobCompleted.
//
// The payload travels as an enqueue task through the job's own queue, so
// delivery and the resulting activation check are serialized with all
// other routing in that job.
func (rt *Runtime) Post(flowName, routineName, slotName string, data map[string]interface{}, jobID string) (*JobContext, error) {
	if rt.isShutDown() {
		return nil, ErrRuntimeShutdown
	}

	f := rt.lookupFlow(flowName)
	if f == nil {
		return nil, &FlowError{Message: "flow not found: " + flowName, Code: "FLOW_NOT_FOUND"}
	}

	var job *JobContext
	if jobID != "" {
		job = rt.GetJob(jobID)
		if job == nil {
			job = rt.jobs.Get(jobID)
		}
		if job == nil {
			return nil, &FlowError{Message: "job not found: " + jobID, Code: "JOB_NOT_FOUND"}
		}
		if job.Status() == StatusCompleted {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrJobCompleted)
		}
		job.setRuntime(rt)
	} else {
		var err error
		job, err = rt.Exec(flowName, nil)
		if err != nil {
			return nil, err
		}
	}

	routine := f.Routine(routineName)
	if routine == nil {
		return nil, &FlowError{Message: "routine not found in flow: " + routineName, Code: "ROUTINE_NOT_FOUND"}
	}
	slot := routine.Slot(slotName)
	if slot == nil {
		return nil, &FlowError{
			Message: "slot " + slotName + " not found in routine " + routineName,
			Code:    "SLOT_NOT_FOUND",
		}
	}

	executor := job.Executor()
	if executor == nil {
		return nil, &FlowError{Message: "no executor for job " + job.JobID(), Code: "JOB_NOT_FOUND"}
	}

	if err := executor.enqueue(&enqueueTask{
		slot:        slot,
		routineID:   routineName,
		data:        data,
		emittedFrom: "external",
		emittedAt:   time.Now(),
		job:         job,
	}); err != nil {
		return nil, err
	}

	rt.metrics.recordPost(f.FlowID(), routineName)
	return job, nil
}

// handleEventEmit routes one emission to every connected slot. It runs on
// the owning job's event-loop goroutine.
//
// A full target slot is logged and skipped; delivery proceeds to sibling
// connections. An emission with no connections is discarded silently.
func (rt *Runtime) handleEventEmit(e *JobExecutor, ev *Event, payload map[string]interface{}, job *JobContext, emittedAt time.Time) {
	f := e.flow
	conns := f.ConnectionsForEvent(ev)
	if len(conns) == 0 {
		return
	}

	sourceID := f.RoutineID(ev.Routine())
	job.RecordExecution(sourceID, "event_emit", map[string]interface{}{
		"event_name": ev.Name(),
		"data":       payload,
	})

	if !rt.safeOnEventEmit(ev, sourceID, job, payload) {
		// Intercepted (e.g. breakpoint); do not route.
		return
	}

	for _, conn := range conns {
		slot := conn.Target()
		if slot == nil {
			continue
		}
		e.enqueueFromLoop(&enqueueTask{
			slot:        slot,
			routineID:   conn.TargetRoutineID,
			data:        payload,
			emittedFrom: sourceID,
			emittedAt:   emittedAt,
			job:         job,
		})
	}
}

// deliverToSlot is the single delivery path used by both external posts
// and event routing: pre-enqueue hook, bounded enqueue, received record,
// then the activation check. Runs on the job's event-loop goroutine.
func (rt *Runtime) deliverToSlot(e *JobExecutor, slot *Slot, routineID string, data map[string]interface{}, emittedFrom string, emittedAt time.Time, job *JobContext) {
	f := e.flow

	if ok, reason := rt.safeOnSlotBeforeEnqueue(slot, routineID, job, data, f.FlowID()); !ok {
		rt.emitEvent(job, routineID, "slot_enqueue_skipped", map[string]interface{}{
			"slot":   slot.Name(),
			"reason": reason,
		})
		return
	}

	if err := slot.Enqueue(data, emittedFrom, emittedAt); err != nil {
		rt.metrics.recordQueueFull(f.FlowID(), slot.Name())
		rt.emitEvent(job, routineID, "slot_queue_full", map[string]interface{}{
			"slot":  slot.Name(),
			"error": err.Error(),
		})
		return
	}

	job.RecordExecution(routineID, "slot_data_received", map[string]interface{}{
		"slot_name":      slot.Name(),
		"source_routine": emittedFrom,
	})

	routine := f.Routine(routineID)
	if routine == nil {
		return
	}
	rt.checkRoutineActivation(e, routineID, routine, job)
}

// checkRoutineActivation evaluates the activation policy for a routine
// after a slot delivery. Evaluations for one routine in one job are
// strictly serialized: they always run on that job's event-loop goroutine.
//
// Policy resolution order: job-specific override → routine default →
// activate immediately consuming all slots.
func (rt *Runtime) checkRoutineActivation(e *JobExecutor, routineID string, routine *Routine, job *JobContext) {
	slots := routine.Slots()

	counts := make(map[string]interface{}, len(slots))
	for name, slot := range slots {
		counts[name] = slot.UnconsumedCount()
	}
	job.RecordExecution(routineID, "activation_check", map[string]interface{}{
		"slot_data_counts": counts,
	})

	policy := job.ActivationPolicyFor(routineID)
	if policy == nil {
		policy = routine.ActivationPolicy()
	}
	if policy == nil {
		rt.activateRoutine(e, routineID, routine, job, consumeAllSlots(slots), nil)
		return
	}

	decision, err := policy(slots, job)
	if err != nil {
		rt.handlePolicyError(e, routineID, routine, job, err)
		return
	}
	if !decision.Activate {
		return
	}
	rt.activateRoutine(e, routineID, routine, job, decision.DataSlice, decision.Message)
}

// handlePolicyError routes an activation-policy failure through the error
// handler resolution. STOP fails the job; every other strategy suppresses
// the activation.
func (rt *Runtime) handlePolicyError(e *JobExecutor, routineID string, routine *Routine, job *JobContext, err error) {
	rt.emitEvent(job, routineID, "policy_error", map[string]interface{}{
		"error": err.Error(),
	})
	handler := resolveErrorHandler(routine, e.flow)
	if handler.Strategy == StrategyStop || handler.Strategy == StrategyRetry {
		// Retrying a policy makes no sense: the next delivery re-runs it
		// anyway. RETRY falls through to STOP like a final failure.
		rt.failJob(e, routineID, job, fmt.Errorf("activation policy error: %w", err))
		return
	}
	job.RecordExecution(routineID, "error", map[string]interface{}{
		"error":  err.Error(),
		"origin": "activation_policy",
	})
}

// activateRoutine marks the routine RUNNING, runs the start hook, and
// submits the logic invocation to the shared worker pool. The completion
// callback records the outcome, fires the end hook, and re-runs the idle
// check.
func (rt *Runtime) activateRoutine(e *JobExecutor, routineID string, routine *Routine, job *JobContext, dataSlice map[string][]SlotDataPoint, policyMessage interface{}) {
	if dataSlice == nil {
		dataSlice = consumeAllSlots(routine.Slots())
	}

	job.setCurrentRoutineID(routineID)

	counts := make(map[string]interface{}, len(dataSlice))
	for name, items := range dataSlice {
		counts[name] = len(items)
	}
	job.RecordExecution(routineID, "start", map[string]interface{}{
		"slot_data_counts": counts,
		"policy_message":   policyMessage,
	})
	job.UpdateRoutineState(routineID, RoutineRunning, "")

	if !rt.safeOnRoutineStart(routineID, job) {
		// Intercepted (e.g. breakpoint): this activation is parked.
		job.UpdateRoutineState(routineID, RoutineSkipped, "")
		rt.safeOnRoutineEnd(routineID, job, "skipped", nil)
		return
	}

	act := &Activation{
		Routine:       routine,
		RoutineID:     routineID,
		Job:           job,
		Inputs:        buildInputs(routine, dataSlice),
		PolicyMessage: policyMessage,
		runtime:       rt,
	}

	rt.trackActivationStart(job.JobID(), routineID)
	e.beginActivation()
	rt.metrics.activationStarted()

	rt.submit(func() {
		rt.safeOnWorkerStart(e.flow, job)

		started := time.Now()
		status := rt.runLogic(e, routineID, routine, job, act)
		rt.metrics.recordActivation(e.flow.FlowID(), routineID, time.Since(started), status)

		rt.safeOnWorkerStop(e.flow, job, status)
		rt.trackActivationEnd(job.JobID(), routineID)
		rt.metrics.activationFinished()
		e.endActivation()
	})
}

// buildInputs lays out the consumed slices as slot-name-sorted batches, one
// per slot of the routine, so logic sees a deterministic input order.
func buildInputs(routine *Routine, dataSlice map[string][]SlotDataPoint) []SlotBatch {
	slots := routine.Slots()
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make([]SlotBatch, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, SlotBatch{Slot: name, Items: dataSlice[name]})
	}
	return inputs
}

// runLogic executes one activation, applying the resolved error strategy on
// failure. Returns the activation's final status string.
//
// RETRY re-invokes the logic up to MaxRetries extra times, sleeping
// RetryDelay * RetryBackoff^(attempt-1) between attempts, and falls
// through to STOP behavior on final failure. The end hook fires once per
// failed attempt and once for a terminal success.
func (rt *Runtime) runLogic(e *JobExecutor, routineID string, routine *Routine, job *JobContext, act *Activation) string {
	logic := routine.Logic()
	if logic == nil {
		rt.emitEvent(job, routineID, "no_logic", nil)
		job.UpdateRoutineState(routineID, RoutineSkipped, "")
		rt.safeOnRoutineEnd(routineID, job, "skipped", nil)
		return "skipped"
	}

	started := time.Now()
	attempt := 0
	for {
		attempt++
		err := invokeLogic(logic, act)
		duration := time.Since(started)

		if err == nil {
			job.UpdateRoutineState(routineID, RoutineCompleted, "")
			job.RecordExecution(routineID, "completed", map[string]interface{}{
				"duration_ms": duration.Milliseconds(),
			})
			rt.safeOnRoutineEnd(routineID, job, "completed", nil)
			return "completed"
		}

		rt.emitEvent(job, routineID, "logic_error", map[string]interface{}{
			"error":   err.Error(),
			"attempt": attempt,
		})

		handler := resolveErrorHandler(routine, e.flow)
		switch handler.Strategy {
		case StrategyRetry:
			job.RecordExecution(routineID, "error", map[string]interface{}{
				"error":       err.Error(),
				"attempt":     attempt,
				"duration_ms": duration.Milliseconds(),
			})
			rt.safeOnRoutineEnd(routineID, job, "failed", err)

			if attempt <= handler.MaxRetries {
				rt.metrics.recordRetry(e.flow.FlowID(), routineID)
				time.Sleep(handler.retryDelayFor(attempt))
				continue
			}
			// Retries exhausted: STOP behavior, end hook already fired
			// for this attempt.
			job.UpdateRoutineState(routineID, RoutineFailed, err.Error())
			rt.failJob(e, routineID, job, fmt.Errorf("logic error after %d attempts: %w", attempt, err))
			return "failed"

		case StrategyContinue:
			job.RecordExecution(routineID, "error_continued", map[string]interface{}{
				"error":       err.Error(),
				"duration_ms": duration.Milliseconds(),
			})
			rt.safeOnRoutineEnd(routineID, job, "error_continued", err)
			return "error_continued"

		case StrategySkip:
			job.UpdateRoutineState(routineID, RoutineSkipped, err.Error())
			job.RecordExecution(routineID, "error", map[string]interface{}{
				"error":       err.Error(),
				"duration_ms": duration.Milliseconds(),
			})
			rt.safeOnRoutineEnd(routineID, job, "skipped", err)
			return "skipped"

		default: // StrategyStop
			job.UpdateRoutineState(routineID, RoutineFailed, err.Error())
			job.RecordExecution(routineID, "error", map[string]interface{}{
				"error":       err.Error(),
				"duration_ms": duration.Milliseconds(),
				"critical":    handler.IsCritical,
			})
			rt.safeOnRoutineEnd(routineID, job, "failed", err)
			rt.failJob(e, routineID, job, fmt.Errorf("logic error: %w", err))
			return "failed"
		}
	}
}

// invokeLogic runs logic, converting panics into errors so a dying worker
// terminates only its own activation.
func invokeLogic(logic Logic, act *Activation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("logic panic: %v", r)
		}
	}()
	return logic(act)
}

// failJob is the STOP path: transition the job to FAILED, stamp it, fire
// the end-of-job hook, and abandon the executor's remaining work.
func (rt *Runtime) failJob(e *JobExecutor, routineID string, job *JobContext, err error) {
	if !job.setStatus(StatusFailed) {
		return
	}
	job.setError(err.Error())
	job.markCompleted(time.Now())
	job.SetShared("error", err.Error())

	rt.safeOnJobEnd(job, "failed", err)
	rt.emitEvent(job, routineID, "job_failed", map[string]interface{}{
		"error": err.Error(),
	})
	rt.markJobFinished(job)
	e.abort()
}

// resolveErrorHandler applies the resolution order: routine's handler →
// flow's handler → default STOP.
func resolveErrorHandler(routine *Routine, f *Flow) *ErrorHandler {
	if h := routine.ErrorHandler(); h != nil {
		return h
	}
	if h := f.ErrorHandler(); h != nil {
		return h
	}
	return DefaultErrorHandler()
}

// submit schedules one unit of work on the shared pool. Work queues
// without bound; at most poolSize units run at once.
func (rt *Runtime) submit(fn func()) {
	go func() {
		rt.sem <- struct{}{}
		defer func() { <-rt.sem }()
		fn()
	}()
}

// lookupFlow resolves a flow by registered name, falling back to flow id.
func (rt *Runtime) lookupFlow(name string) *Flow {
	if f := rt.flows.GetByName(name); f != nil {
		return f
	}
	return rt.flows.GetByID(name)
}

// GetJob returns the active job with the given id, or nil.
func (rt *Runtime) GetJob(jobID string) *JobContext {
	rt.jobMu.Lock()
	defer rt.jobMu.Unlock()
	return rt.activeJobs[jobID]
}

// ListJobs returns all tracked jobs, optionally filtered by status.
func (rt *Runtime) ListJobs(status ExecutionStatus) []*JobContext {
	rt.jobMu.Lock()
	defer rt.jobMu.Unlock()
	out := make([]*JobContext, 0, len(rt.activeJobs))
	for _, job := range rt.activeJobs {
		if status != "" && job.Status() != status {
			continue
		}
		out = append(out, job)
	}
	return out
}

// CancelJob cancels a job. Queued tasks are discarded immediately; running
// activations are allowed to finish. Returns false if the job is unknown
// or already terminal.
func (rt *Runtime) CancelJob(jobID string) bool {
	job := rt.GetJob(jobID)
	if job == nil {
		return false
	}
	if job.Status().Terminal() {
		return false
	}
	executor := job.Executor()
	if executor == nil {
		return false
	}
	executor.Cancel("cancelled via runtime")
	return true
}

// WaitUntilAllJobsFinished polls until no tracked job is RUNNING or
// PENDING, or the timeout elapses. A zero timeout uses a 1-hour cap.
// Returns false on timeout.
func (rt *Runtime) WaitUntilAllJobsFinished(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaultWaitCap
	}
	deadline := time.Now().Add(timeout)
	for {
		active := 0
		rt.jobMu.Lock()
		for _, job := range rt.activeJobs {
			switch job.Status() {
			case StatusRunning, StatusPending:
				active++
			}
		}
		rt.jobMu.Unlock()

		if active == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(jobPollInterval)
	}
}

// Shutdown stops the runtime. With wait=true it waits up to timeout for
// jobs to finish first (default 5s); jobs still alive afterwards, and all
// of them with wait=false, are cancelled so every job lands in a terminal
// state. Subsequent Exec and Post calls fail with ErrRuntimeShutdown.
// Idempotent.
func (rt *Runtime) Shutdown(wait bool, timeout time.Duration) {
	rt.shutdownMu.Lock()
	if rt.isShutdown {
		rt.shutdownMu.Unlock()
		return
	}
	rt.isShutdown = true
	rt.shutdownMu.Unlock()

	if wait {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		rt.WaitUntilAllJobsFinished(timeout)
	}

	rt.jobMu.Lock()
	jobs := make([]*JobContext, 0, len(rt.activeJobs))
	for _, job := range rt.activeJobs {
		jobs = append(jobs, job)
	}
	rt.jobMu.Unlock()

	for _, job := range jobs {
		if job.Status().Terminal() {
			continue
		}
		if executor := job.Executor(); executor != nil {
			executor.Cancel("runtime shutdown")
		}
	}
}

func (rt *Runtime) isShutDown() bool {
	rt.shutdownMu.Lock()
	defer rt.shutdownMu.Unlock()
	return rt.isShutdown
}

// markJobFinished records terminal jobs with the job registry so the
// retention sweeper can evict them later.
func (rt *Runtime) markJobFinished(job *JobContext) {
	rt.jobs.MarkCompleted(job.JobID())
}

// ActiveRoutines returns the ids of routines currently executing for a
// job. Used by monitoring collaborators.
func (rt *Runtime) ActiveRoutines(jobID string) []string {
	rt.monitorMu.Lock()
	defer rt.monitorMu.Unlock()
	out := make([]string, 0, len(rt.activeRoutines[jobID]))
	for id := range rt.activeRoutines[jobID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ActiveThreadCount returns how many pool workers are executing the given
// routine for the given job right now.
func (rt *Runtime) ActiveThreadCount(jobID, routineID string) int {
	rt.monitorMu.Lock()
	defer rt.monitorMu.Unlock()
	return rt.threadCounts[jobID][routineID]
}

// AllActiveThreadCounts returns per-routine worker counts for a job.
func (rt *Runtime) AllActiveThreadCounts(jobID string) map[string]int {
	rt.monitorMu.Lock()
	defer rt.monitorMu.Unlock()
	out := make(map[string]int, len(rt.threadCounts[jobID]))
	for id, n := range rt.threadCounts[jobID] {
		out[id] = n
	}
	return out
}

func (rt *Runtime) trackActivationStart(jobID, routineID string) {
	rt.monitorMu.Lock()
	defer rt.monitorMu.Unlock()
	if rt.activeRoutines[jobID] == nil {
		rt.activeRoutines[jobID] = make(map[string]struct{})
	}
	rt.activeRoutines[jobID][routineID] = struct{}{}
	if rt.threadCounts[jobID] == nil {
		rt.threadCounts[jobID] = make(map[string]int)
	}
	rt.threadCounts[jobID][routineID]++
}

func (rt *Runtime) trackActivationEnd(jobID, routineID string) {
	rt.monitorMu.Lock()
	defer rt.monitorMu.Unlock()
	if counts := rt.threadCounts[jobID]; counts != nil {
		counts[routineID]--
		if counts[routineID] <= 0 {
			delete(counts, routineID)
			if routines := rt.activeRoutines[jobID]; routines != nil {
				delete(routines, routineID)
				if len(routines) == 0 {
					delete(rt.activeRoutines, jobID)
				}
			}
		}
		if len(counts) == 0 {
			delete(rt.threadCounts, jobID)
		}
	}
}

// emitEvent reports an engine event through the configured emitter.
func (rt *Runtime) emitEvent(job *JobContext, routineID, msg string, meta map[string]interface{}) {
	rt.emitter.Emit(emit.Event{
		JobID:     job.JobID(),
		FlowID:    job.FlowID(),
		RoutineID: routineID,
		Msg:       msg,
		Meta:      meta,
	})
}
