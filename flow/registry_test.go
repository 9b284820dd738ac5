package flow

import (
	"testing"
	"time"
)

func TestFlowRegistry(t *testing.T) {
	reg := NewFlowRegistry()

	f := NewFlow("fid-1")
	reg.Register("main", f)

	t.Run("lookup by name and id", func(t *testing.T) {
		if reg.GetByName("main") != f {
			t.Error("GetByName failed")
		}
		if reg.GetByID("fid-1") != f {
			t.Error("GetByID failed")
		}
		if reg.GetByName("missing") != nil {
			t.Error("unknown name must return nil")
		}
	})

	t.Run("re-register replaces", func(t *testing.T) {
		replacement := NewFlow("fid-2")
		reg.Register("main", replacement)
		if reg.GetByName("main") != replacement {
			t.Error("replacement not installed")
		}
		if reg.GetByID("fid-1") != nil {
			t.Error("stale flow id still resolvable")
		}
	})

	t.Run("remove", func(t *testing.T) {
		if !reg.Remove("main") {
			t.Error("Remove returned false")
		}
		if reg.Remove("main") {
			t.Error("double Remove returned true")
		}
		if reg.GetByName("main") != nil {
			t.Error("removed flow still resolvable")
		}
	})

	t.Run("reset", func(t *testing.T) {
		reg.Register("a", NewFlow("x"))
		reg.Reset()
		if len(reg.Names()) != 0 {
			t.Error("Reset left registrations behind")
		}
	})
}

func TestJobRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		reg := NewJobRegistry(WithSweepInterval(time.Hour))
		defer reg.Stop()

		job := NewJobContext("f1")
		reg.Register(job)

		if reg.Get(job.JobID()) != job {
			t.Error("Get failed")
		}
		if jobs := reg.ByFlow("f1"); len(jobs) != 1 || jobs[0] != job {
			t.Errorf("ByFlow = %v", jobs)
		}
		if reg.Get("missing") != nil {
			t.Error("unknown job must return nil")
		}
	})

	t.Run("retention eviction", func(t *testing.T) {
		reg := NewJobRegistry(WithSweepInterval(time.Hour), WithRetention(time.Nanosecond))
		defer reg.Stop()

		job := NewJobContext("f1")
		reg.Register(job)
		reg.MarkCompleted(job.JobID())

		time.Sleep(time.Millisecond)
		reg.Sweep()

		if reg.Get(job.JobID()) != nil {
			t.Error("expired job not evicted")
		}
		if len(reg.ByFlow("f1")) != 0 {
			t.Error("flow index not cleaned")
		}
	})

	t.Run("unmarked jobs survive sweeps", func(t *testing.T) {
		reg := NewJobRegistry(WithSweepInterval(time.Hour), WithRetention(time.Nanosecond))
		defer reg.Stop()

		job := NewJobContext("f1")
		reg.Register(job)
		reg.Sweep()
		if reg.Get(job.JobID()) == nil {
			t.Error("live job evicted")
		}
	})

	t.Run("remove bypasses retention", func(t *testing.T) {
		reg := NewJobRegistry(WithSweepInterval(time.Hour))
		defer reg.Stop()

		job := NewJobContext("f1")
		reg.Register(job)
		reg.Remove(job.JobID())
		if reg.Get(job.JobID()) != nil {
			t.Error("removed job still resolvable")
		}
	})

	t.Run("reset", func(t *testing.T) {
		reg := NewJobRegistry(WithSweepInterval(time.Hour))
		defer reg.Stop()

		reg.Register(NewJobContext("f1"))
		reg.Reset()
		if reg.Len() != 0 {
			t.Error("Reset left jobs behind")
		}
	})
}

func TestDefaultRegistries(t *testing.T) {
	t.Cleanup(ResetDefaultFlowRegistry)
	t.Cleanup(ResetDefaultJobRegistry)

	if DefaultFlowRegistry() != DefaultFlowRegistry() {
		t.Error("DefaultFlowRegistry must be a singleton")
	}
	if DefaultJobRegistry() != DefaultJobRegistry() {
		t.Error("DefaultJobRegistry must be a singleton")
	}

	DefaultFlowRegistry().Register("x", NewFlow("x"))
	ResetDefaultFlowRegistry()
	if DefaultFlowRegistry().GetByName("x") != nil {
		t.Error("reset did not clear the default flow registry")
	}
}
