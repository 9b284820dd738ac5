package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestTracer(t *testing.T) (*tracetest.InMemoryExporter, *OTelEmitter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return exporter, NewOTelEmitter(otel.Tracer("routilux-test"))
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestOTelEmitter_Emit(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(Event{
		JobID:     "job-001",
		FlowID:    "pipeline",
		RoutineID: "parser",
		Msg:       "routine_start",
		Meta: map[string]interface{}{
			"attempt": 1,
			"slot":    "in",
		},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != "routine_start" {
		t.Errorf("span name = %q, want routine_start", span.Name)
	}

	attrs := attributeMap(span.Attributes)
	if got := attrs["routilux.job_id"]; got != "job-001" {
		t.Errorf("job_id = %v", got)
	}
	if got := attrs["routilux.flow_id"]; got != "pipeline" {
		t.Errorf("flow_id = %v", got)
	}
	if got := attrs["routilux.routine_id"]; got != "parser" {
		t.Errorf("routine_id = %v", got)
	}
	if got := attrs["routilux.attempt"]; got != int64(1) {
		t.Errorf("attempt = %v", got)
	}
	if got := attrs["routilux.slot"]; got != "in" {
		t.Errorf("slot = %v", got)
	}
}

func TestOTelEmitter_ErrorStatus(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	emitter.Emit(Event{
		JobID: "job-001",
		Msg:   "logic_error",
		Meta:  map[string]interface{}{"error": "boom"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want error", spans[0].Status.Code)
	}
}

func TestOTelEmitter_EmitBatch(t *testing.T) {
	exporter, emitter := newTestTracer(t)

	events := []Event{
		{JobID: "j", Msg: "routine_start"},
		{JobID: "j", Msg: "routine_end"},
		{JobID: "j", Msg: "job_idle"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch failed: %v", err)
	}

	if got := len(exporter.GetSpans()); got != 3 {
		t.Errorf("expected 3 spans, got %d", got)
	}
}

func TestOTelEmitter_Flush(t *testing.T) {
	_, emitter := newTestTracer(t)
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush failed: %v", err)
	}
}
