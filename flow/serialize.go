package flow

import (
	"encoding/json"
	"time"
)

// FlowSnapshot is the serialized form of a Flow, consumed by monitoring
// and persistence collaborators. Only static graph structure is captured;
// runtime-only state (queues, goroutines, running/paused flags) is never
// serialized, and records that carry such fields deserialize cleanly with
// the extra fields ignored.
type FlowSnapshot struct {
	FlowID       string                `json:"flow_id"`
	Routines     []RoutineDescriptor   `json:"routines"`
	Connections  []ConnectionRecord    `json:"connections"`
	ErrorHandler *ErrorHandlerSnapshot `json:"error_handler,omitempty"`
}

// RoutineDescriptor describes one routine in a serialized flow: its id,
// slot and event names, and any JSON-serializable config entries.
type RoutineDescriptor struct {
	RoutineID string                 `json:"routine_id"`
	Slots     []string               `json:"slots"`
	Events    []string               `json:"events"`
	Config    map[string]interface{} `json:"config,omitempty"`
}

// ConnectionRecord is the serialized form of one connection.
//
// Legacy records may carry a "param_mapping" key from historical versions;
// it is ignored on load and connections always deliver payloads verbatim.
type ConnectionRecord struct {
	SourceRoutineID string `json:"source_routine_id"`
	SourceEvent     string `json:"source_event"`
	TargetRoutineID string `json:"target_routine_id"`
	TargetSlot      string `json:"target_slot"`
}

// ErrorHandlerSnapshot is the serialized form of an ErrorHandler.
type ErrorHandlerSnapshot struct {
	Strategy     ErrorStrategy `json:"strategy"`
	MaxRetries   int           `json:"max_retries,omitempty"`
	RetryDelayMS int64         `json:"retry_delay_ms,omitempty"`
	RetryBackoff float64       `json:"retry_backoff,omitempty"`
	IsCritical   bool          `json:"is_critical,omitempty"`
}

// Serialize captures the flow's static structure as a snapshot. The
// snapshot is taken under the config lock.
func (f *Flow) Serialize() *FlowSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := &FlowSnapshot{FlowID: f.flowID}

	for _, id := range f.order {
		r := f.routines[id]
		desc := RoutineDescriptor{RoutineID: id}
		for name := range r.Slots() {
			desc.Slots = append(desc.Slots, name)
		}
		for name := range r.Events() {
			desc.Events = append(desc.Events, name)
		}
		cfg := r.Config()
		if len(cfg) > 0 {
			serializable := make(map[string]interface{}, len(cfg))
			for k, v := range cfg {
				if _, err := json.Marshal(v); err == nil {
					serializable[k] = v
				}
			}
			desc.Config = serializable
		}
		snap.Routines = append(snap.Routines, desc)
	}

	for _, c := range f.connections {
		snap.Connections = append(snap.Connections, ConnectionRecord{
			SourceRoutineID: c.SourceRoutineID,
			SourceEvent:     c.SourceEvent,
			TargetRoutineID: c.TargetRoutineID,
			TargetSlot:      c.TargetSlot,
		})
	}

	if f.errorHandler != nil {
		snap.ErrorHandler = &ErrorHandlerSnapshot{
			Strategy:     f.errorHandler.Strategy,
			MaxRetries:   f.errorHandler.MaxRetries,
			RetryDelayMS: f.errorHandler.RetryDelay.Milliseconds(),
			RetryBackoff: f.errorHandler.RetryBackoff,
			IsCritical:   f.errorHandler.IsCritical,
		}
	}

	return snap
}

// MarshalJSON encodes the flow as its snapshot.
func (f *Flow) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Serialize())
}

// DeserializeFlow reconstructs a Flow's static structure from serialized
// bytes. Routines come back with their slot and event surfaces and config;
// logic, policies, and per-routine handlers are code and must be
// re-attached by the caller.
//
// Unknown fields, including the legacy keys "entry_routine_id",
// "entry_params", "execution_strategy", "max_workers", and the per-
// connection "param_mapping", are silently ignored.
func DeserializeFlow(data []byte) (*Flow, error) {
	var snap FlowSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &FlowError{Message: "invalid flow snapshot: " + err.Error(), Code: "INVALID_SNAPSHOT"}
	}
	return RestoreFlow(&snap)
}

// RestoreFlow rebuilds a Flow from a snapshot, validating every connection
// endpoint the same way live Connect calls do.
func RestoreFlow(snap *FlowSnapshot) (*Flow, error) {
	f := NewFlow(snap.FlowID)

	for _, desc := range snap.Routines {
		r := NewRoutine()
		for _, slotName := range desc.Slots {
			if _, err := r.AddSlot(slotName); err != nil {
				return nil, err
			}
		}
		for _, eventName := range desc.Events {
			if _, err := r.AddEvent(eventName); err != nil {
				return nil, err
			}
		}
		if len(desc.Config) > 0 {
			r.SetConfig(desc.Config)
		}
		if err := f.AddRoutine(desc.RoutineID, r); err != nil {
			return nil, err
		}
	}

	for _, rec := range snap.Connections {
		if _, err := f.Connect(rec.SourceRoutineID, rec.SourceEvent, rec.TargetRoutineID, rec.TargetSlot); err != nil {
			return nil, err
		}
	}

	if snap.ErrorHandler != nil {
		f.SetErrorHandler(&ErrorHandler{
			Strategy:     snap.ErrorHandler.Strategy,
			MaxRetries:   snap.ErrorHandler.MaxRetries,
			RetryDelay:   msToDuration(snap.ErrorHandler.RetryDelayMS),
			RetryBackoff: snap.ErrorHandler.RetryBackoff,
			IsCritical:   snap.ErrorHandler.IsCritical,
		})
	}

	return f, nil
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
