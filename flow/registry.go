package flow

import (
	"sync"
	"time"
)

// FlowRegistry is a thread-safe mapping from flow name to Flow, with a
// secondary index by flow id. External callers reference flows by name
// strings, so the Runtime resolves Exec/Post targets here.
type FlowRegistry struct {
	mu     sync.RWMutex
	byName map[string]*Flow
	byID   map[string]*Flow
}

// NewFlowRegistry creates an empty registry.
func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{
		byName: make(map[string]*Flow),
		byID:   make(map[string]*Flow),
	}
}

// Register makes a flow resolvable by name (and by its flow id).
// Re-registering a name replaces the previous flow.
func (r *FlowRegistry) Register(name string, f *Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byName[name]; ok {
		delete(r.byID, old.FlowID())
	}
	r.byName[name] = f
	r.byID[f.FlowID()] = f
}

// GetByName returns the flow registered under name, or nil.
func (r *FlowRegistry) GetByName(name string) *Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// GetByID returns the flow with the given flow id, or nil.
func (r *FlowRegistry) GetByID(flowID string) *Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[flowID]
}

// Remove unregisters a flow by name. Returns false if the name is unknown.
func (r *FlowRegistry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byName[name]
	if !ok {
		return false
	}
	delete(r.byName, name)
	delete(r.byID, f.FlowID())
	return true
}

// Names returns the registered flow names.
func (r *FlowRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	return out
}

// Reset drops every registration. Intended for tests.
func (r *FlowRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]*Flow)
	r.byID = make(map[string]*Flow)
}

const (
	// defaultSweepInterval is how often the job registry's background
	// sweeper runs.
	defaultSweepInterval = 10 * time.Minute

	// defaultRetention is how long completed jobs stay resolvable before
	// the sweeper evicts them.
	defaultRetention = time.Hour
)

// JobRegistry is a process-wide mapping of JobContext references keyed by
// job id with a secondary index by flow id, used by monitoring
// collaborators to resolve jobs the Runtime no longer tracks.
//
// A background sweeper evicts jobs marked completed more than the
// retention window ago. Completion marks arrive through a cleanup queue
// that the sweeper drains under a try-lock, so a caller running inside a
// finalizer can never deadlock against the sweep.
type JobRegistry struct {
	mu     sync.Mutex
	jobs   map[string]*JobContext
	byFlow map[string]map[string]*JobContext

	cleanupMu sync.Mutex
	cleanup   []completionMark

	completedAt map[string]time.Time

	retention     time.Duration
	sweepInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

type completionMark struct {
	jobID string
	at    time.Time
}

// JobRegistryOption configures a JobRegistry.
type JobRegistryOption func(*JobRegistry)

// WithRetention sets how long completed jobs remain resolvable.
func WithRetention(d time.Duration) JobRegistryOption {
	return func(r *JobRegistry) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithSweepInterval sets the sweeper cadence.
func WithSweepInterval(d time.Duration) JobRegistryOption {
	return func(r *JobRegistry) {
		if d > 0 {
			r.sweepInterval = d
		}
	}
}

// NewJobRegistry creates a registry and starts its background sweeper.
// Call Stop when the registry is no longer needed.
func NewJobRegistry(opts ...JobRegistryOption) *JobRegistry {
	r := &JobRegistry{
		jobs:          make(map[string]*JobContext),
		byFlow:        make(map[string]map[string]*JobContext),
		completedAt:   make(map[string]time.Time),
		retention:     defaultRetention,
		sweepInterval: defaultSweepInterval,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.sweepLoop()
	return r
}

// Register tracks a job by id and flow id.
func (r *JobRegistry) Register(job *JobContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.JobID()] = job
	if r.byFlow[job.FlowID()] == nil {
		r.byFlow[job.FlowID()] = make(map[string]*JobContext)
	}
	r.byFlow[job.FlowID()][job.JobID()] = job
}

// Get returns the job with the given id, or nil.
func (r *JobRegistry) Get(jobID string) *JobContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobID]
}

// ByFlow returns all tracked jobs for a flow id.
func (r *JobRegistry) ByFlow(flowID string) []*JobContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*JobContext, 0, len(r.byFlow[flowID]))
	for _, job := range r.byFlow[flowID] {
		out = append(out, job)
	}
	return out
}

// Len returns the number of tracked jobs.
func (r *JobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// MarkCompleted queues a job for retention-based eviction. Safe to call
// from any goroutine, including finalizer-like contexts: the mark only
// appends to the cleanup queue under its own small lock.
func (r *JobRegistry) MarkCompleted(jobID string) {
	r.cleanupMu.Lock()
	defer r.cleanupMu.Unlock()
	r.cleanup = append(r.cleanup, completionMark{jobID: jobID, at: time.Now()})
}

// Remove drops a job immediately, bypassing retention.
func (r *JobRegistry) Remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(jobID)
}

func (r *JobRegistry) evictLocked(jobID string) {
	job, ok := r.jobs[jobID]
	if !ok {
		return
	}
	delete(r.jobs, jobID)
	delete(r.completedAt, jobID)
	if flowJobs := r.byFlow[job.FlowID()]; flowJobs != nil {
		delete(flowJobs, jobID)
		if len(flowJobs) == 0 {
			delete(r.byFlow, job.FlowID())
		}
	}
}

// Sweep drains the cleanup queue and evicts jobs whose completion mark is
// older than the retention window. Runs on the sweeper cadence; exported
// so tests and collaborators can force a pass.
//
// The main registry lock is taken with TryLock: if it is contended the
// sweep simply retries next cycle rather than risking a deadlock.
func (r *JobRegistry) Sweep() {
	r.cleanupMu.Lock()
	marks := r.cleanup
	r.cleanup = nil
	r.cleanupMu.Unlock()

	if !r.mu.TryLock() {
		// Contended: re-queue the marks and try again next cycle.
		r.cleanupMu.Lock()
		r.cleanup = append(marks, r.cleanup...)
		r.cleanupMu.Unlock()
		return
	}
	defer r.mu.Unlock()

	for _, mark := range marks {
		if _, ok := r.completedAt[mark.jobID]; !ok {
			r.completedAt[mark.jobID] = mark.at
		}
	}

	cutoff := time.Now().Add(-r.retention)
	for jobID, at := range r.completedAt {
		if at.Before(cutoff) {
			r.evictLocked(jobID)
		}
	}
}

func (r *JobRegistry) sweepLoop() {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Stop halts the background sweeper. Idempotent.
func (r *JobRegistry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// Reset drops every tracked job and pending mark. Intended for tests.
func (r *JobRegistry) Reset() {
	r.cleanupMu.Lock()
	r.cleanup = nil
	r.cleanupMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = make(map[string]*JobContext)
	r.byFlow = make(map[string]map[string]*JobContext)
	r.completedAt = make(map[string]time.Time)
}

// Process-wide default registries, resolvable without plumbing a registry
// through every constructor. Tests use the Reset* entry points.
var (
	defaultFlowRegistryOnce sync.Once
	defaultFlowRegistry     *FlowRegistry

	defaultJobRegistryOnce sync.Once
	defaultJobRegistry     *JobRegistry

	defaultRuntimeMu sync.Mutex
	defaultRuntime   *Runtime
)

// DefaultFlowRegistry returns the process-wide flow registry.
func DefaultFlowRegistry() *FlowRegistry {
	defaultFlowRegistryOnce.Do(func() {
		defaultFlowRegistry = NewFlowRegistry()
	})
	return defaultFlowRegistry
}

// ResetDefaultFlowRegistry clears the process-wide flow registry.
func ResetDefaultFlowRegistry() {
	DefaultFlowRegistry().Reset()
}

// DefaultJobRegistry returns the process-wide job registry.
func DefaultJobRegistry() *JobRegistry {
	defaultJobRegistryOnce.Do(func() {
		defaultJobRegistry = NewJobRegistry()
	})
	return defaultJobRegistry
}

// ResetDefaultJobRegistry clears the process-wide job registry.
func ResetDefaultJobRegistry() {
	DefaultJobRegistry().Reset()
}

// DefaultRuntime returns the process-wide Runtime, creating it with
// default options on first use. Collaborating API layers use this to
// reach runtime state without plumbing.
func DefaultRuntime() *Runtime {
	defaultRuntimeMu.Lock()
	defer defaultRuntimeMu.Unlock()
	if defaultRuntime == nil {
		rt, err := NewRuntime()
		if err != nil {
			// Defaults are always valid; reaching here is a bug.
			panic(err)
		}
		defaultRuntime = rt
	}
	return defaultRuntime
}

// ResetDefaultRuntime shuts down and discards the process-wide Runtime.
// Intended for tests.
func ResetDefaultRuntime() {
	defaultRuntimeMu.Lock()
	rt := defaultRuntime
	defaultRuntime = nil
	defaultRuntimeMu.Unlock()
	if rt != nil {
		rt.Shutdown(false, 0)
	}
}
