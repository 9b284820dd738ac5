package emit

import (
	"context"

	"go.uber.org/zap"
)

// ZapEmitter implements Emitter by forwarding events to a zap logger.
//
// Each event becomes a structured log entry at a level derived from the
// event's Meta: events whose Meta carries an "error" key are logged at Warn,
// everything else at Info. The event fields become structured zap fields,
// so downstream log pipelines can index on job_id/flow_id/routine_id.
//
// Usage:
//
//	logger, _ := zap.NewProduction()
//	defer func() { _ = logger.Sync() }()
//	emitter := emit.NewZapEmitter(logger)
//	rt, err := flow.NewRuntime(flow.WithEmitter(emitter))
type ZapEmitter struct {
	logger *zap.Logger
}

// NewZapEmitter creates a new ZapEmitter backed by the given logger.
// A nil logger defaults to zap.NewNop().
func NewZapEmitter(logger *zap.Logger) *ZapEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapEmitter{logger: logger}
}

// Emit logs the event as a structured entry.
func (z *ZapEmitter) Emit(event Event) {
	fields := []zap.Field{
		zap.String("job_id", event.JobID),
		zap.String("flow_id", event.FlowID),
	}
	if event.RoutineID != "" {
		fields = append(fields, zap.String("routine_id", event.RoutineID))
	}
	for key, value := range event.Meta {
		fields = append(fields, zap.Any(key, value))
	}

	if _, failed := event.Meta["error"]; failed {
		z.logger.Warn(event.Msg, fields...)
		return
	}
	z.logger.Info(event.Msg, fields...)
}

// EmitBatch logs each event in order.
func (z *ZapEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		z.Emit(event)
	}
	return nil
}

// Flush syncs the underlying logger.
func (z *ZapEmitter) Flush(ctx context.Context) error {
	return z.logger.Sync()
}
