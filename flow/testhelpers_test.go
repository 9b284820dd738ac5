package flow

import (
	"sync"
	"testing"
	"time"

	"github.com/routilux/routilux-go/flow/emit"
)

// testEnv bundles a Runtime with isolated registries and a buffered
// emitter so tests never leak state into the process-wide defaults.
type testEnv struct {
	rt      *Runtime
	emitter *emit.BufferedEmitter
	flows   *FlowRegistry
	jobs    *JobRegistry
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	flows := NewFlowRegistry()
	jobs := NewJobRegistry(WithSweepInterval(time.Hour))
	t.Cleanup(jobs.Stop)

	buffered := emit.NewBufferedEmitter()
	base := []Option{
		WithFlowRegistry(flows),
		WithJobRegistry(jobs),
		WithEmitter(buffered),
	}
	rt, err := NewRuntime(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	t.Cleanup(func() { rt.Shutdown(false, 0) })

	return &testEnv{rt: rt, emitter: buffered, flows: flows, jobs: jobs}
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %v: %s", timeout, msg)
}

// recordingHooks is a test double for ExecutionHooks that captures
// per-routine event sequences and lets tests override the intercepting
// hooks.
type recordingHooks struct {
	NullHooks

	mu       sync.Mutex
	sequence []string

	onRoutineStart      func(routineID string, job *JobContext) bool
	onSlotBeforeEnqueue func(slot *Slot, routineID string, job *JobContext, data map[string]interface{}, flowID string) (bool, string)
	onEventEmit         func(ev *Event, sourceRoutineID string, job *JobContext, data map[string]interface{}) bool
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{}
}

func (h *recordingHooks) record(entry string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sequence = append(h.sequence, entry)
}

func (h *recordingHooks) entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.sequence))
	copy(out, h.sequence)
	return out
}

func (h *recordingHooks) OnRoutineStart(routineID string, job *JobContext) bool {
	h.record("start:" + routineID)
	if h.onRoutineStart != nil {
		return h.onRoutineStart(routineID, job)
	}
	return true
}

func (h *recordingHooks) OnRoutineEnd(routineID string, job *JobContext, status string, err error) {
	h.record("end:" + routineID + ":" + status)
}

func (h *recordingHooks) OnEventEmit(ev *Event, sourceRoutineID string, job *JobContext, data map[string]interface{}) bool {
	h.record("emit:" + sourceRoutineID + ":" + ev.Name())
	if h.onEventEmit != nil {
		return h.onEventEmit(ev, sourceRoutineID, job, data)
	}
	return true
}

func (h *recordingHooks) OnSlotBeforeEnqueue(slot *Slot, routineID string, job *JobContext, data map[string]interface{}, flowID string) (bool, string) {
	if h.onSlotBeforeEnqueue != nil {
		return h.onSlotBeforeEnqueue(slot, routineID, job, data, flowID)
	}
	return true, ""
}
