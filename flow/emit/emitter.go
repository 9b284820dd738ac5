// Package emit provides event emission and observability for job execution.
package emit

import "context"

// Emitter receives and processes observability events from the engine.
//
// Emitters enable pluggable observability backends:
// - Logging: stdout, files, syslog.
// - Distributed tracing: OpenTelemetry, Jaeger, Zipkin.
// - Structured logging: zap.
// - In-memory capture for tests and dashboards.
//
// Implementations should be:
// - Non-blocking: Avoid slowing down routing or activation.
// - Thread-safe: May be called concurrently from many jobs and workers.
// - Resilient: Handle failures gracefully (never crash the engine).
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Implementations must not block the engine. If the backend is
	// unavailable or slow, events should be buffered, dropped with
	// internal error logging, or sent asynchronously.
	//
	// Emit must not panic.
	Emit(event Event)

	// EmitBatch sends multiple events in a single operation.
	//
	// Batching amortizes backend round-trips when emitting high volumes
	// of events. Implementations should process events in order and
	// handle partial failures gracefully.
	//
	// Returns error only on catastrophic failures; individual event
	// failures should be logged and swallowed.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush ensures all buffered events are sent to the backend.
	//
	// Call before process shutdown or after a job completes when
	// immediate visibility is required. Implementations should respect
	// context cancellation and be safe to call multiple times.
	Flush(ctx context.Context) error
}
