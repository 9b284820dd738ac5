package emit

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedZap(t *testing.T) (*observer.ObservedLogs, *ZapEmitter) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return logs, NewZapEmitter(zap.New(core))
}

func TestZapEmitter_Emit(t *testing.T) {
	logs, emitter := newObservedZap(t)

	emitter.Emit(Event{
		JobID:     "job-1",
		FlowID:    "pipeline",
		RoutineID: "parser",
		Msg:       "routine_start",
		Meta:      map[string]interface{}{"attempt": 1},
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != "routine_start" {
		t.Errorf("message = %q", entry.Message)
	}
	if entry.Level != zapcore.InfoLevel {
		t.Errorf("level = %v, want info", entry.Level)
	}

	fields := entry.ContextMap()
	if fields["job_id"] != "job-1" || fields["routine_id"] != "parser" {
		t.Errorf("fields = %v", fields)
	}
}

func TestZapEmitter_ErrorsLogAtWarn(t *testing.T) {
	logs, emitter := newObservedZap(t)

	emitter.Emit(Event{
		JobID: "job-1",
		Msg:   "slot_queue_full",
		Meta:  map[string]interface{}{"error": "slot full"},
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestZapEmitter_EmitBatch(t *testing.T) {
	logs, emitter := newObservedZap(t)

	events := []Event{{JobID: "j", Msg: "a"}, {JobID: "j", Msg: "b"}}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}
	if logs.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", logs.Len())
	}
}

func TestZapEmitter_NilLogger(t *testing.T) {
	emitter := NewZapEmitter(nil)
	emitter.Emit(Event{JobID: "j", Msg: "ok"}) // must not panic
}
