package emit

import (
	"context"
	"testing"
)

func TestNullEmitter(t *testing.T) {
	emitter := NewNullEmitter()

	// All operations are no-ops and must never fail.
	emitter.Emit(Event{JobID: "j", Msg: "anything"})
	if err := emitter.EmitBatch(context.Background(), []Event{{JobID: "j"}}); err != nil {
		t.Errorf("EmitBatch failed: %v", err)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush failed: %v", err)
	}
}
