package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testStoreSuite(t *testing.T, st RecordStore) {
	ctx := context.Background()

	t.Run("flow record round trip", func(t *testing.T) {
		rec := FlowRecord{
			FlowID:    "f1",
			Name:      "pipeline",
			Snapshot:  []byte(`{"flow_id":"f1","routines":[],"connections":[]}`),
			UpdatedAt: time.Now().Truncate(time.Second),
		}
		if err := st.SaveFlow(ctx, rec); err != nil {
			t.Fatalf("SaveFlow failed: %v", err)
		}

		loaded, err := st.LoadFlow(ctx, "f1")
		if err != nil {
			t.Fatalf("LoadFlow failed: %v", err)
		}
		if loaded.Name != "pipeline" || string(loaded.Snapshot) != string(rec.Snapshot) {
			t.Errorf("loaded = %+v", loaded)
		}
	})

	t.Run("flow upsert replaces", func(t *testing.T) {
		rec := FlowRecord{FlowID: "f1", Name: "renamed", Snapshot: []byte(`{}`), UpdatedAt: time.Now()}
		if err := st.SaveFlow(ctx, rec); err != nil {
			t.Fatalf("SaveFlow failed: %v", err)
		}
		loaded, err := st.LoadFlow(ctx, "f1")
		if err != nil {
			t.Fatalf("LoadFlow failed: %v", err)
		}
		if loaded.Name != "renamed" {
			t.Errorf("name = %s, want renamed", loaded.Name)
		}
	})

	t.Run("missing flow is ErrNotFound", func(t *testing.T) {
		if _, err := st.LoadFlow(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("job record round trip", func(t *testing.T) {
		started := time.Now().Add(-time.Minute).Truncate(time.Second)
		rec := JobRecord{
			JobID:     "j1",
			FlowID:    "f1",
			Status:    "idle",
			StartedAt: started,
			History:   []byte(`[{"routine_id":"r","action":"start"}]`),
		}
		if err := st.SaveJob(ctx, rec); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		loaded, err := st.LoadJob(ctx, "j1")
		if err != nil {
			t.Fatalf("LoadJob failed: %v", err)
		}
		if loaded.Status != "idle" || loaded.FlowID != "f1" {
			t.Errorf("loaded = %+v", loaded)
		}
		if !loaded.CompletedAt.IsZero() {
			t.Error("completed_at must stay zero until terminal")
		}
	})

	t.Run("job upsert tracks status", func(t *testing.T) {
		rec := JobRecord{
			JobID:       "j1",
			FlowID:      "f1",
			Status:      "failed",
			Error:       "boom",
			StartedAt:   time.Now().Add(-time.Minute).Truncate(time.Second),
			CompletedAt: time.Now().Truncate(time.Second),
		}
		if err := st.SaveJob(ctx, rec); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
		loaded, err := st.LoadJob(ctx, "j1")
		if err != nil {
			t.Fatalf("LoadJob failed: %v", err)
		}
		if loaded.Status != "failed" || loaded.Error != "boom" || loaded.CompletedAt.IsZero() {
			t.Errorf("loaded = %+v", loaded)
		}
	})

	t.Run("missing job is ErrNotFound", func(t *testing.T) {
		if _, err := st.LoadJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("list jobs by flow, newest first", func(t *testing.T) {
		older := JobRecord{JobID: "j2", FlowID: "f1", Status: "completed",
			StartedAt: time.Now().Add(-2 * time.Hour).Truncate(time.Second)}
		if err := st.SaveJob(ctx, older); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
		unrelated := JobRecord{JobID: "j3", FlowID: "other", Status: "idle",
			StartedAt: time.Now().Truncate(time.Second)}
		if err := st.SaveJob(ctx, unrelated); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		jobs, err := st.ListJobs(ctx, "f1")
		if err != nil {
			t.Fatalf("ListJobs failed: %v", err)
		}
		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(jobs))
		}
		if jobs[0].JobID != "j1" || jobs[1].JobID != "j2" {
			t.Errorf("order = %s,%s, want j1,j2", jobs[0].JobID, jobs[1].JobID)
		}
	})
}

func TestMemStore(t *testing.T) {
	st := NewMemStore()
	defer func() { _ = st.Close() }()
	testStoreSuite(t, st)
}
