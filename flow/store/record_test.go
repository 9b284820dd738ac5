package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/routilux/routilux-go/flow"
)

func TestNewFlowRecord(t *testing.T) {
	f := flow.NewFlow("f1")
	r := flow.NewRoutine()
	if _, err := r.AddSlot("in"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddEvent("out"); err != nil {
		t.Fatal(err)
	}
	if err := f.AddRoutine("r1", r); err != nil {
		t.Fatal(err)
	}

	rec, err := NewFlowRecord("pipeline", f)
	if err != nil {
		t.Fatalf("NewFlowRecord failed: %v", err)
	}
	if rec.FlowID != "f1" || rec.Name != "pipeline" {
		t.Errorf("record = %+v", rec)
	}

	// The snapshot must round-trip through the flow deserializer.
	restored, err := flow.DeserializeFlow(rec.Snapshot)
	if err != nil {
		t.Fatalf("snapshot does not deserialize: %v", err)
	}
	if restored.Routine("r1") == nil {
		t.Error("routine missing from snapshot")
	}
}

func TestNewJobRecord(t *testing.T) {
	job := flow.NewJobContext("f1")
	job.RecordExecution("r1", "start", nil)
	job.RecordExecution("r1", "completed", nil)

	rec, err := NewJobRecord(job)
	if err != nil {
		t.Fatalf("NewJobRecord failed: %v", err)
	}
	if rec.JobID != job.JobID() || rec.FlowID != "f1" || rec.Status != "pending" {
		t.Errorf("record = %+v", rec)
	}

	var history []map[string]interface{}
	if err := json.Unmarshal(rec.History, &history); err != nil {
		t.Fatalf("history does not decode: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("history entries = %d, want 2", len(history))
	}
}

func TestRecordStoreIntegration(t *testing.T) {
	st := NewMemStore()
	defer func() { _ = st.Close() }()

	f := flow.NewFlow("f-int")
	if err := f.AddRoutine("r", flow.NewRoutine()); err != nil {
		t.Fatal(err)
	}
	rec, err := NewFlowRecord("integration", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.SaveFlow(context.Background(), rec); err != nil {
		t.Fatalf("SaveFlow failed: %v", err)
	}

	loaded, err := st.LoadFlow(context.Background(), "f-int")
	if err != nil {
		t.Fatalf("LoadFlow failed: %v", err)
	}
	restored, err := flow.DeserializeFlow(loaded.Snapshot)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.FlowID() != "f-int" {
		t.Errorf("flow id = %s", restored.FlowID())
	}
}
