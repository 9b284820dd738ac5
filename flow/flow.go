package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Flow is a static workflow graph: routines keyed by id (insertion
// ordered), the connection set wiring events to slots, and the default
// error handler.
//
// A Flow has no runtime state (no queues, no goroutines, no running flag)
// and is shared by every job executing it. It is mutable: connections may
// be added or removed while jobs run, with every mutation serialized under
// the flow's single config lock. Readers snapshot under the lock and
// iterate the snapshot lock-free.
type Flow struct {
	flowID string

	mu           sync.Mutex // config lock: guards routines, order, connections, handler
	routines     map[string]*Routine
	order        []string
	connections  []*Connection
	errorHandler *ErrorHandler

	executionTimeout time.Duration
}

// NewFlow creates an empty flow. An empty flowID is replaced with a fresh
// UUID.
func NewFlow(flowID string) *Flow {
	if flowID == "" {
		flowID = uuid.NewString()
	}
	return &Flow{
		flowID:   flowID,
		routines: make(map[string]*Routine),
	}
}

// FlowID returns the flow's stable identifier.
func (f *Flow) FlowID() string {
	return f.flowID
}

// AddRoutine registers a routine under the given id.
//
// Fails with a configuration error if the id is taken or the routine
// already belongs to a flow; routines are never transferred between flows.
func (f *Flow) AddRoutine(routineID string, r *Routine) error {
	if routineID == "" {
		return &FlowError{Message: "routine id cannot be empty", Code: "INVALID_CONNECTION"}
	}
	if r == nil {
		return &FlowError{Message: "routine cannot be nil", Code: "INVALID_CONNECTION"}
	}
	if r.Flow() != nil {
		return &FlowError{Message: "routine already belongs to a flow", Code: "ROUTINE_OWNED"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.routines[routineID]; exists {
		return &FlowError{Message: "duplicate routine id: " + routineID, Code: "DUPLICATE_ROUTINE"}
	}

	f.routines[routineID] = r
	f.order = append(f.order, routineID)
	r.setFlow(f)
	return nil
}

// Routine returns the routine registered under id, or nil.
func (f *Flow) Routine(routineID string) *Routine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routines[routineID]
}

// Routines returns the flow's routines keyed by id.
func (f *Flow) Routines() map[string]*Routine {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*Routine, len(f.routines))
	for id, r := range f.routines {
		out[id] = r
	}
	return out
}

// RoutineIDs returns routine ids in insertion order.
func (f *Flow) RoutineIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// RoutineID resolves a routine instance back to its id within this flow,
// or "" if the routine is not registered here. The engine uses this index
// at delivery time instead of traversing slot back-references.
func (f *Flow) RoutineID(r *Routine) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, candidate := range f.routines {
		if candidate == r {
			return id
		}
	}
	return ""
}

// Connect adds a directed edge from a source routine's event to a target
// routine's slot.
//
// Every endpoint is validated at connect time: missing routines, events,
// or slots fail with a configuration error. Fan-out (many edges out of one
// event) and fan-in (many edges into one slot) are both permitted, as are
// duplicate edges.
func (f *Flow) Connect(sourceRoutineID, eventName, targetRoutineID, slotName string) (*Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	source, ok := f.routines[sourceRoutineID]
	if !ok {
		return nil, &FlowError{Message: "source routine not found: " + sourceRoutineID, Code: "ROUTINE_NOT_FOUND"}
	}
	target, ok := f.routines[targetRoutineID]
	if !ok {
		return nil, &FlowError{Message: "target routine not found: " + targetRoutineID, Code: "ROUTINE_NOT_FOUND"}
	}
	ev := source.Event(eventName)
	if ev == nil {
		return nil, &FlowError{Message: "event " + eventName + " not defined on routine " + sourceRoutineID, Code: "EVENT_NOT_FOUND"}
	}
	slot := target.Slot(slotName)
	if slot == nil {
		return nil, &FlowError{Message: "slot " + slotName + " not defined on routine " + targetRoutineID, Code: "SLOT_NOT_FOUND"}
	}

	conn := &Connection{
		SourceRoutineID: sourceRoutineID,
		SourceEvent:     eventName,
		TargetRoutineID: targetRoutineID,
		TargetSlot:      slotName,
		sourceEvent:     ev,
		targetSlot:      slot,
	}
	f.connections = append(f.connections, conn)
	return conn, nil
}

// Disconnect removes one connection from the flow. Returns false if the
// connection is not present.
func (f *Flow) Disconnect(conn *Connection) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.connections {
		if c == conn {
			f.connections = append(f.connections[:i], f.connections[i+1:]...)
			return true
		}
	}
	return false
}

// ClearConnections atomically removes every connection. Combined with
// Connect this supports live rewiring while jobs execute.
func (f *Flow) ClearConnections() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connections = nil
}

// Connections returns a snapshot of the connection set.
func (f *Flow) Connections() []*Connection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Connection, len(f.connections))
	copy(out, f.connections)
	return out
}

// ConnectionsForEvent returns a snapshot of every connection whose source
// event matches. The snapshot is taken under the config lock and iterated
// lock-free by routing.
func (f *Flow) ConnectionsForEvent(ev *Event) []*Connection {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Connection
	for _, c := range f.connections {
		if c.sourceEvent == ev {
			out = append(out, c)
		}
	}
	return out
}

// SetErrorHandler installs the flow's default error handler, used when a
// failing routine has none of its own.
func (f *Flow) SetErrorHandler(h *ErrorHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorHandler = h
}

// ErrorHandler returns the flow default handler, or nil.
func (f *Flow) ErrorHandler() *ErrorHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorHandler
}

// SetExecutionTimeout sets the per-job timeout applied when jobs over this
// flow are started. Zero means unbounded.
func (f *Flow) SetExecutionTimeout(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executionTimeout = d
}

// ExecutionTimeout returns the flow's per-job timeout.
func (f *Flow) ExecutionTimeout() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executionTimeout
}
