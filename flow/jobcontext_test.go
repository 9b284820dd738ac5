package flow

import (
	"testing"
)

func TestJobContext_Creation(t *testing.T) {
	job := NewJobContext("flow-1")

	if job.JobID() == "" {
		t.Error("expected a generated job id")
	}
	if job.FlowID() != "flow-1" {
		t.Errorf("flow id = %s, want flow-1", job.FlowID())
	}
	if job.Status() != StatusPending {
		t.Errorf("status = %s, want pending", job.Status())
	}

	other := NewJobContext("flow-1")
	if other.JobID() == job.JobID() {
		t.Error("job ids must be unique")
	}
}

func TestJobContext_StatusTransitions(t *testing.T) {
	t.Run("terminal states have no back-edges", func(t *testing.T) {
		for _, terminal := range []ExecutionStatus{StatusCompleted, StatusFailed, StatusCancelled} {
			job := NewJobContext("f")
			if !job.setStatus(terminal) {
				t.Fatalf("transition to %s refused", terminal)
			}
			if job.setStatus(StatusRunning) {
				t.Errorf("transition out of %s must be refused", terminal)
			}
			if job.Status() != terminal {
				t.Errorf("status = %s, want %s", job.Status(), terminal)
			}
		}
	})

	t.Run("idle and running interleave", func(t *testing.T) {
		job := NewJobContext("f")
		job.setStatus(StatusRunning)
		job.setStatus(StatusIdle)
		job.setStatus(StatusRunning)
		if job.Status() != StatusRunning {
			t.Errorf("status = %s, want running", job.Status())
		}
	})
}

func TestJobContext_SharedData(t *testing.T) {
	job := NewJobContext("f")
	job.SetShared("k", 42)

	v, ok := job.Shared("k")
	if !ok || v != 42 {
		t.Errorf("Shared(k) = %v,%v", v, ok)
	}
	if _, ok := job.Shared("missing"); ok {
		t.Error("missing key reported present")
	}

	snapshot := job.SharedData()
	snapshot["k"] = 0
	if v, _ := job.Shared("k"); v != 42 {
		t.Error("SharedData must return a copy")
	}
}

func TestJobContext_History(t *testing.T) {
	job := NewJobContext("f")
	job.RecordExecution("r1", "start", map[string]interface{}{"n": 1})
	job.RecordExecution("r1", "completed", nil)

	history := job.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].Action != "start" || history[1].Action != "completed" {
		t.Error("history out of order")
	}
	if history[0].RoutineID != "r1" {
		t.Errorf("routine id = %s, want r1", history[0].RoutineID)
	}
	if history[0].Timestamp.IsZero() {
		t.Error("record timestamp not stamped")
	}
}

func TestJobContext_RoutineStates(t *testing.T) {
	job := NewJobContext("f")
	job.UpdateRoutineState("r1", RoutineRunning, "")

	st, ok := job.RoutineState("r1")
	if !ok || st.Status != RoutineRunning {
		t.Errorf("state = %+v,%v", st, ok)
	}

	job.UpdateRoutineState("r1", RoutineFailed, "boom")
	st, _ = job.RoutineState("r1")
	if st.Status != RoutineFailed || st.Error != "boom" {
		t.Errorf("state = %+v", st)
	}

	if _, ok := job.RoutineState("missing"); ok {
		t.Error("unknown routine reported present")
	}
}

func TestJobContext_PolicyOverrides(t *testing.T) {
	job := NewJobContext("f")
	if job.ActivationPolicyFor("r1") != nil {
		t.Error("expected no override initially")
	}

	job.SetActivationPolicy("r1", ImmediatePolicy())
	if job.ActivationPolicyFor("r1") == nil {
		t.Error("expected override installed")
	}

	job.SetActivationPolicy("r1", nil)
	if job.ActivationPolicyFor("r1") != nil {
		t.Error("nil policy must clear the override")
	}
}
