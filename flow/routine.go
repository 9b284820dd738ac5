package flow

import "sync"

// SlotBatch is one routine input: the batch of data points consumed from a
// single slot for a single activation.
type SlotBatch struct {
	// Slot is the slot name the batch was consumed from.
	Slot string

	// Items are the consumed data points in FIFO order.
	Items []SlotDataPoint
}

// Activation carries everything a routine's logic needs for one invocation:
// the consumed input batches, the policy message, the job being executed,
// and the emission surface.
//
// Inputs are ordered by slot name (ascending), one batch per slot of the
// routine, so logic observes a deterministic input layout regardless of
// delivery interleaving. Slots the policy did not select appear with an
// empty Items slice.
type Activation struct {
	// Routine is the routine being activated.
	Routine *Routine

	// RoutineID is the routine's id within the flow.
	RoutineID string

	// Job is the executing job's context. Logic may read and write
	// Job shared data; all accessors are thread-safe.
	Job *JobContext

	// Inputs are the consumed slot batches in slot-name sorted order.
	Inputs []SlotBatch

	// PolicyMessage is opaque auxiliary data returned by the activation
	// policy that selected this activation's data slice. Nil when the
	// fallback immediate policy fired.
	PolicyMessage interface{}

	runtime *Runtime
}

// Input returns the consumed batch for the named slot, or nil if the slot
// does not exist on the routine.
func (a *Activation) Input(slot string) []SlotDataPoint {
	for _, batch := range a.Inputs {
		if batch.Slot == slot {
			return batch.Items
		}
	}
	return nil
}

// Emit packs fields into a payload and schedules it for routing on the
// job's event loop. The event must be defined on the activated routine.
//
// Multiple concurrent activations of the same routine may emit at once;
// within one emitter all slot deliveries for emission k happen before any
// delivery for emission k+1.
func (a *Activation) Emit(eventName string, fields map[string]interface{}) error {
	ev := a.Routine.Event(eventName)
	if ev == nil {
		return &FlowError{
			Message: "event " + eventName + " not defined on routine " + a.RoutineID,
			Code:    "EVENT_NOT_FOUND",
		}
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	return ev.Emit(fields, a.runtime, a.Job)
}

// Logic is a routine's executable body. It is synchronous from the engine's
// perspective: the engine does not await work the logic spawns itself.
//
// Logic must be safe under concurrent invocation: a single routine may be
// active many times at once within one job. It must not touch routine
// internals beyond emitting events and updating Job shared data.
//
// A returned error is routed through the routine's error-handler resolution
// (routine handler → flow handler → default STOP).
type Logic func(act *Activation) error

// Routine is a logic unit within a Flow. It owns its input surface (slots),
// output surface (events), the logic callable, an optional activation
// policy, an optional error handler, and a free-form config map.
//
// A routine may appear in exactly one Flow at a time, under a unique
// routine id.
type Routine struct {
	mu sync.Mutex

	slots  map[string]*Slot
	events map[string]*Event

	logic            Logic
	activationPolicy ActivationPolicy
	errorHandler     *ErrorHandler
	config           map[string]interface{}

	flow *Flow // set when added to a flow
}

// NewRoutine creates an empty routine. Attach slots, events, and logic
// before adding it to a flow.
func NewRoutine() *Routine {
	return &Routine{
		slots:  make(map[string]*Slot),
		events: make(map[string]*Event),
		config: make(map[string]interface{}),
	}
}

// AddSlot defines a named input slot on the routine.
//
// Returns a configuration error if the name is already taken.
func (r *Routine) AddSlot(name string, opts ...SlotOption) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.slots[name]; exists {
		return nil, &FlowError{Message: "duplicate slot name: " + name, Code: "DUPLICATE_SLOT"}
	}

	slot := NewSlot(name, opts...)
	slot.attach(r)
	r.slots[name] = slot
	return slot, nil
}

// AddEvent defines a named output event on the routine. outputParams is the
// advisory list of payload keys the event will carry.
//
// Returns a configuration error if the name is already taken.
func (r *Routine) AddEvent(name string, outputParams ...string) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[name]; exists {
		return nil, &FlowError{Message: "duplicate event name: " + name, Code: "DUPLICATE_EVENT"}
	}

	ev := &Event{
		name:         name,
		routine:      r,
		outputParams: outputParams,
	}
	r.events[name] = ev
	return ev, nil
}

// Slot returns the named slot, or nil.
func (r *Routine) Slot(name string) *Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[name]
}

// Event returns the named event, or nil.
func (r *Routine) Event(name string) *Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[name]
}

// Slots returns a snapshot of the routine's slots keyed by name.
func (r *Routine) Slots() map[string]*Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Slot, len(r.slots))
	for name, slot := range r.slots {
		out[name] = slot
	}
	return out
}

// Events returns a snapshot of the routine's events keyed by name.
func (r *Routine) Events() map[string]*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Event, len(r.events))
	for name, ev := range r.events {
		out[name] = ev
	}
	return out
}

// SetLogic installs the routine's executable body.
func (r *Routine) SetLogic(logic Logic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logic = logic
}

// Logic returns the installed logic, or nil.
func (r *Routine) Logic() Logic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logic
}

// SetActivationPolicy installs the routine's default activation policy.
// A nil policy means "activate immediately, consume all slots".
func (r *Routine) SetActivationPolicy(policy ActivationPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activationPolicy = policy
}

// ActivationPolicy returns the routine's default policy, or nil.
func (r *Routine) ActivationPolicy() ActivationPolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activationPolicy
}

// SetErrorHandler installs the routine's error handler, overriding the
// flow default for this routine.
func (r *Routine) SetErrorHandler(h *ErrorHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorHandler = h
}

// ErrorHandler returns the routine's own handler, or nil if the routine
// defers to the flow default.
func (r *Routine) ErrorHandler() *ErrorHandler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errorHandler
}

// SetConfig merges the given key/value pairs into the routine's config bag.
func (r *Routine) SetConfig(kv map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range kv {
		r.config[k] = v
	}
}

// Config returns a snapshot of the routine's config bag.
func (r *Routine) Config() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]interface{}, len(r.config))
	for k, v := range r.config {
		out[k] = v
	}
	return out
}

// ConfigValue returns one config entry and whether it is present.
func (r *Routine) ConfigValue(key string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.config[key]
	return v, ok
}

// Flow returns the flow the routine belongs to, or nil.
func (r *Routine) Flow() *Flow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flow
}

func (r *Routine) setFlow(f *Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flow = f
}
