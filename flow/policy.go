package flow

// PolicyDecision is the outcome of an activation-policy evaluation.
type PolicyDecision struct {
	// Activate reports whether the routine should fire now.
	Activate bool

	// DataSlice maps slot name to the items the policy consumed for this
	// activation. Policies consume their slice at decision time: policy
	// evaluations for one routine in one job are serialized on the job's
	// routing goroutine, so consumption here is race-free even though the
	// logic invocations it feeds run in parallel on the worker pool.
	DataSlice map[string][]SlotDataPoint

	// Message is opaque auxiliary data handed to the logic unchanged.
	Message interface{}
}

// ActivationPolicy decides whether a routine should fire and with what data
// slice. It inspects slot state and the job context.
//
// Contract:
//   - Must not block. Evaluations run on the job's routing goroutine; a
//     slow policy stalls all routing for that job.
//   - Should consume the data it selects (via Slot.ConsumeAllNew or
//     Slot.Consume) rather than peeking, because by the time the logic
//     runs the slot may have acquired more data.
//   - A returned error is treated like a logic error and routed through
//     the routine's error-handler resolution: STOP fails the job,
//     CONTINUE/SKIP suppress the activation.
//
// Policy selection order at runtime: job-specific override (in JobContext)
// → routine default → fallback "activate immediately, consume all slots".
type ActivationPolicy func(slots map[string]*Slot, job *JobContext) (PolicyDecision, error)

// ImmediatePolicy returns the built-in policy that fires as soon as any
// slot has new data, consuming every unconsumed item from the slots that
// have any.
func ImmediatePolicy() ActivationPolicy {
	return func(slots map[string]*Slot, job *JobContext) (PolicyDecision, error) {
		slice := make(map[string][]SlotDataPoint)
		for name, slot := range slots {
			if slot.UnconsumedCount() > 0 {
				slice[name] = slot.ConsumeAllNew()
			}
		}
		if len(slice) == 0 {
			return PolicyDecision{}, nil
		}
		return PolicyDecision{Activate: true, DataSlice: slice}, nil
	}
}

// BatchSizePolicy returns the built-in policy that fires once the
// designated slot has accumulated at least n items, consuming exactly n of
// them per activation. Other slots are left untouched.
//
// The policy message is the batch size consumed, as an int.
func BatchSizePolicy(slotName string, n int) ActivationPolicy {
	return func(slots map[string]*Slot, job *JobContext) (PolicyDecision, error) {
		slot, ok := slots[slotName]
		if !ok {
			return PolicyDecision{}, &FlowError{
				Message: "batch policy references unknown slot: " + slotName,
				Code:    "SLOT_NOT_FOUND",
			}
		}
		if slot.UnconsumedCount() < n {
			return PolicyDecision{}, nil
		}
		return PolicyDecision{
			Activate:  true,
			DataSlice: map[string][]SlotDataPoint{slotName: slot.Consume(n)},
			Message:   n,
		}, nil
	}
}

// consumeAllSlots is the fallback used when no policy is configured:
// activate immediately with every unconsumed item from every slot.
func consumeAllSlots(slots map[string]*Slot) map[string][]SlotDataPoint {
	slice := make(map[string][]SlotDataPoint, len(slots))
	for name, slot := range slots {
		slice[name] = slot.ConsumeAllNew()
	}
	return slice
}
