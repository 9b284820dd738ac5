package flow

import (
	"time"

	"github.com/routilux/routilux-go/flow/emit"
)

// Option is a functional option for configuring a Runtime.
//
// Example:
//
//	rt, err := flow.NewRuntime(
//	    flow.WithThreadPoolSize(16),
//	    flow.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	    flow.WithMetrics(flow.NewRuntimeMetrics(prometheus.DefaultRegisterer)),
//	)
type Option func(*runtimeConfig)

// runtimeConfig collects options before they are applied to a Runtime.
type runtimeConfig struct {
	threadPoolSize   int
	queueDepth       int
	executionTimeout time.Duration
	emitter          emit.Emitter
	metrics          *RuntimeMetrics
	flows            *FlowRegistry
	jobs             *JobRegistry
}

// WithThreadPoolSize sets the shared worker pool size, used by all jobs
// and all routines. Each routine activation is one unit of work.
//
// Default: 10. Must be >= 1; values above 1000 are accepted but reported
// as a warning event because they rarely help and can exhaust resources.
func WithThreadPoolSize(n int) Option {
	return func(cfg *runtimeConfig) {
		cfg.threadPoolSize = n
	}
}

// WithQueueDepth sets the per-job task queue capacity.
//
// Default: 1024. When a job's queue fills, enqueues block until space
// frees, which backpressures the producing side.
func WithQueueDepth(n int) Option {
	return func(cfg *runtimeConfig) {
		cfg.queueDepth = n
	}
}

// WithExecutionTimeout sets the default per-job timeout applied when a
// flow does not configure its own. Zero means unbounded.
func WithExecutionTimeout(d time.Duration) Option {
	return func(cfg *runtimeConfig) {
		cfg.executionTimeout = d
	}
}

// WithEmitter sets the observability emitter the runtime reports through.
// Engine-internal warnings (queue-full drops, hook panics, timeouts) go to
// the same emitter. Default: emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *runtimeConfig) {
		cfg.emitter = e
	}
}

// WithMetrics enables Prometheus metrics collection. Nil disables it.
func WithMetrics(m *RuntimeMetrics) Option {
	return func(cfg *runtimeConfig) {
		cfg.metrics = m
	}
}

// WithFlowRegistry binds the runtime to a specific flow registry instead
// of the process-wide default. Mostly useful in tests.
func WithFlowRegistry(r *FlowRegistry) Option {
	return func(cfg *runtimeConfig) {
		cfg.flows = r
	}
}

// WithJobRegistry binds the runtime to a specific job registry instead of
// the process-wide default.
func WithJobRegistry(r *JobRegistry) Option {
	return func(cfg *runtimeConfig) {
		cfg.jobs = r
	}
}
