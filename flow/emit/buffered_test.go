package emit

import (
	"context"
	"sync"
	"testing"
)

func TestBufferedEmitter_HistoryByJob(t *testing.T) {
	emitter := NewBufferedEmitter()

	emitter.Emit(Event{JobID: "j1", Msg: "a"})
	emitter.Emit(Event{JobID: "j1", Msg: "b"})
	emitter.Emit(Event{JobID: "j2", Msg: "c"})

	if got := emitter.Count("j1"); got != 2 {
		t.Errorf("Count(j1) = %d, want 2", got)
	}
	history := emitter.History("j1")
	if len(history) != 2 || history[0].Msg != "a" || history[1].Msg != "b" {
		t.Errorf("history = %v", history)
	}
	if len(emitter.History("unknown")) != 0 {
		t.Error("unknown job must return empty history")
	}
}

func TestBufferedEmitter_Filter(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{JobID: "j", RoutineID: "a", Msg: "routine_start"})
	emitter.Emit(Event{JobID: "j", RoutineID: "a", Msg: "routine_end"})
	emitter.Emit(Event{JobID: "j", RoutineID: "b", Msg: "routine_start"})

	byRoutine := emitter.HistoryWithFilter("j", HistoryFilter{RoutineID: "a"})
	if len(byRoutine) != 2 {
		t.Errorf("routine filter matched %d, want 2", len(byRoutine))
	}
	both := emitter.HistoryWithFilter("j", HistoryFilter{RoutineID: "a", Msg: "routine_end"})
	if len(both) != 1 {
		t.Errorf("combined filter matched %d, want 1", len(both))
	}
}

func TestBufferedEmitter_Clear(t *testing.T) {
	emitter := NewBufferedEmitter()
	emitter.Emit(Event{JobID: "j1", Msg: "a"})
	emitter.Emit(Event{JobID: "j2", Msg: "b"})

	emitter.Clear("j1")
	if emitter.Count("j1") != 0 {
		t.Error("Clear left events behind")
	}
	if emitter.Count("j2") != 1 {
		t.Error("Clear removed the wrong job")
	}

	emitter.ClearAll()
	if emitter.Count("j2") != 0 {
		t.Error("ClearAll left events behind")
	}
}

func TestBufferedEmitter_EmitBatch(t *testing.T) {
	emitter := NewBufferedEmitter()
	events := []Event{{JobID: "j", Msg: "a"}, {JobID: "j", Msg: "b"}}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}
	if emitter.Count("j") != 2 {
		t.Errorf("Count = %d, want 2", emitter.Count("j"))
	}
}

func TestBufferedEmitter_ConcurrentAccess(t *testing.T) {
	emitter := NewBufferedEmitter()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				emitter.Emit(Event{JobID: "j", Msg: "tick"})
				emitter.History("j")
			}
		}()
	}
	wg.Wait()

	if got := emitter.Count("j"); got != 1000 {
		t.Errorf("Count = %d, want 1000", got)
	}
}
