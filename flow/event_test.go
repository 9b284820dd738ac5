package flow

import (
	"errors"
	"testing"
	"time"
)

func TestEvent_Surface(t *testing.T) {
	r := NewRoutine()
	ev, err := r.AddEvent("out", "x", "y")
	if err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}

	if ev.Name() != "out" {
		t.Errorf("name = %s", ev.Name())
	}
	if ev.Routine() != r {
		t.Error("owner back-reference not set")
	}
	params := ev.OutputParams()
	if len(params) != 2 || params[0] != "x" || params[1] != "y" {
		t.Errorf("output params = %v", params)
	}

	// Returned slice is a copy; mutating it must not affect the event.
	params[0] = "mutated"
	if ev.OutputParams()[0] != "x" {
		t.Error("OutputParams leaked internal state")
	}
}

func TestActivation_Input(t *testing.T) {
	r := NewRoutine()
	if _, err := r.AddSlot("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddSlot("b"); err != nil {
		t.Fatal(err)
	}

	slice := map[string][]SlotDataPoint{
		"b": {{Data: map[string]interface{}{"v": 1}, EmittedAt: time.Now()}},
	}
	act := &Activation{
		Routine:   r,
		RoutineID: "r",
		Inputs:    buildInputs(r, slice),
	}

	// Inputs come back in slot-name sorted order, one batch per slot.
	if len(act.Inputs) != 2 || act.Inputs[0].Slot != "a" || act.Inputs[1].Slot != "b" {
		t.Fatalf("inputs = %+v", act.Inputs)
	}
	if len(act.Input("a")) != 0 {
		t.Error("unselected slot must yield an empty batch")
	}
	if items := act.Input("b"); len(items) != 1 || items[0].Data["v"] != 1 {
		t.Errorf("Input(b) = %+v", items)
	}
	if act.Input("missing") != nil {
		t.Error("unknown slot must yield nil")
	}
}

func TestActivation_EmitUnknownEvent(t *testing.T) {
	r := NewRoutine()
	act := &Activation{Routine: r, RoutineID: "r", Job: NewJobContext("f")}

	err := act.Emit("nope", nil)
	var fe *FlowError
	if !errors.As(err, &fe) || fe.Code != "EVENT_NOT_FOUND" {
		t.Errorf("expected EVENT_NOT_FOUND, got %v", err)
	}
}

func TestEvent_EmitWithoutExecutor(t *testing.T) {
	r := NewRoutine()
	ev, err := r.AddEvent("out")
	if err != nil {
		t.Fatal(err)
	}

	job := NewJobContext("f")
	if err := ev.Emit(map[string]interface{}{}, nil, job); err == nil {
		t.Error("emit without an executor must fail")
	}
}
