package store

import (
	"encoding/json"
	"time"

	"github.com/routilux/routilux-go/flow"
)

// NewFlowRecord builds a FlowRecord from a live flow under its registry
// name. The snapshot is the flow's serialized static structure.
func NewFlowRecord(name string, f *flow.Flow) (FlowRecord, error) {
	snapshot, err := json.Marshal(f.Serialize())
	if err != nil {
		return FlowRecord{}, err
	}
	return FlowRecord{
		FlowID:    f.FlowID(),
		Name:      name,
		Snapshot:  snapshot,
		UpdatedAt: time.Now(),
	}, nil
}

// NewJobRecord builds a JobRecord summarizing a job's current state,
// including its serialized execution history.
func NewJobRecord(job *flow.JobContext) (JobRecord, error) {
	history, err := json.Marshal(job.History())
	if err != nil {
		return JobRecord{}, err
	}
	return JobRecord{
		JobID:       job.JobID(),
		FlowID:      job.FlowID(),
		Status:      string(job.Status()),
		Error:       job.Error(),
		StartedAt:   job.StartedAt(),
		CompletedAt: job.CompletedAt(),
		History:     history,
	}, nil
}
