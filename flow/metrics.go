package flow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RuntimeMetrics provides Prometheus-compatible metrics collection for
// runtime monitoring in production environments.
//
// Metrics exposed (all namespaced with "routilux_"):
//
//  1. inflight_activations (gauge): routine activations currently running
//     on the shared worker pool.
//     Use: Monitor pool saturation.
//
//  2. activation_latency_ms (histogram): routine logic duration in
//     milliseconds. Labels: flow_id, routine_id, status.
//     Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000].
//     Use: P50/P95/P99 latency analysis per routine.
//
//  3. retries_total (counter): cumulative retry attempts.
//     Labels: flow_id, routine_id.
//     Use: Identify flaky routines.
//
//  4. queue_full_total (counter): deliveries dropped because a slot queue
//     was at capacity. Labels: flow_id, slot.
//     Use: This is the engine's backpressure signal: the default policy
//     on a full slot is log-and-continue, so this counter is how
//     operators see sustained overload.
//
//  5. posts_total (counter): external payloads injected via Runtime.Post.
//     Labels: flow_id, routine_id.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := flow.NewRuntimeMetrics(registry)
//	rt, _ := flow.NewRuntime(flow.WithMetrics(metrics))
//
//	// Expose via HTTP for Prometheus scraping:
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// All methods are safe on a nil receiver, which is how "metrics disabled"
// is expressed throughout the engine.
type RuntimeMetrics struct {
	inflightActivations prometheus.Gauge
	activationLatency   *prometheus.HistogramVec
	retries             *prometheus.CounterVec
	queueFull           *prometheus.CounterVec
	posts               *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewRuntimeMetrics creates and registers all runtime metrics with the
// provided Prometheus registry. A nil registry uses the global default.
func NewRuntimeMetrics(registry prometheus.Registerer) *RuntimeMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	m := &RuntimeMetrics{registry: registry}

	m.inflightActivations = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "routilux",
		Name:      "inflight_activations",
		Help:      "Number of routine activations currently executing on the shared worker pool",
	})

	m.activationLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routilux",
		Name:      "activation_latency_ms",
		Help:      "Routine activation duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	}, []string{"flow_id", "routine_id", "status"})

	m.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routilux",
		Name:      "retries_total",
		Help:      "Cumulative routine retry attempts",
	}, []string{"flow_id", "routine_id"})

	m.queueFull = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routilux",
		Name:      "queue_full_total",
		Help:      "Slot deliveries dropped because the queue was at capacity",
	}, []string{"flow_id", "slot"})

	m.posts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routilux",
		Name:      "posts_total",
		Help:      "External payloads injected via Runtime.Post",
	}, []string{"flow_id", "routine_id"})

	return m
}

func (m *RuntimeMetrics) activationStarted() {
	if m == nil {
		return
	}
	m.inflightActivations.Inc()
}

func (m *RuntimeMetrics) activationFinished() {
	if m == nil {
		return
	}
	m.inflightActivations.Dec()
}

func (m *RuntimeMetrics) recordActivation(flowID, routineID string, d time.Duration, status string) {
	if m == nil {
		return
	}
	m.activationLatency.WithLabelValues(flowID, routineID, status).Observe(float64(d.Milliseconds()))
}

func (m *RuntimeMetrics) recordRetry(flowID, routineID string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(flowID, routineID).Inc()
}

func (m *RuntimeMetrics) recordQueueFull(flowID, slot string) {
	if m == nil {
		return
	}
	m.queueFull.WithLabelValues(flowID, slot).Inc()
}

func (m *RuntimeMetrics) recordPost(flowID, routineID string) {
	if m == nil {
		return
	}
	m.posts.WithLabelValues(flowID, routineID).Inc()
}
