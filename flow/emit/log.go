package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogEmitter implements Emitter by writing structured log output to a writer.
//
// Supports two output modes:
// - Text mode (default): Human-readable format with key=value pairs.
// - JSON mode: Machine-readable JSON format, one event per line.
//
// Example text output:
//
//	[routine_start] jobID=job-001 flowID=pipeline routineID=parser
//
// Example JSON output:
//
//	{"jobID":"job-001","flowID":"pipeline","routineID":"parser","msg":"routine_start","meta":null}
//
// Usage:
//
//	// Text output to stdout.
//	emitter := emit.NewLogEmitter(os.Stdout, false)
//
//	// JSON output to file.
//	f, _ := os.Create("events.jsonl")
//	defer func() { _ = f.Close() }()
//	emitter := emit.NewLogEmitter(f, true)
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a new LogEmitter.
//
// Parameters:
// - writer: Where to write the log output (e.g., os.Stdout, file). Nil defaults to stdout.
// - jsonMode: If true, emit JSON format; if false, emit text format.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes an event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

// EmitBatch writes each event to the writer in order.
func (l *LogEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op for LogEmitter; writes are unbuffered.
func (l *LogEmitter) Flush(ctx context.Context) error {
	return nil
}

func (l *LogEmitter) emitJSON(event Event) {
	payload := struct {
		JobID     string                 `json:"jobID"`
		FlowID    string                 `json:"flowID"`
		RoutineID string                 `json:"routineID"`
		Msg       string                 `json:"msg"`
		Meta      map[string]interface{} `json:"meta"`
	}{
		JobID:     event.JobID,
		FlowID:    event.FlowID,
		RoutineID: event.RoutineID,
		Msg:       event.Msg,
		Meta:      event.Meta,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(l.writer, "{\"msg\":\"emit_marshal_error\",\"error\":%q}\n", err.Error())
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	line := fmt.Sprintf("[%s] jobID=%s flowID=%s", event.Msg, event.JobID, event.FlowID)
	if event.RoutineID != "" {
		line += fmt.Sprintf(" routineID=%s", event.RoutineID)
	}
	if len(event.Meta) > 0 {
		if meta, err := json.Marshal(event.Meta); err == nil {
			line += fmt.Sprintf(" meta=%s", meta)
		}
	}
	fmt.Fprintln(l.writer, line)
}
