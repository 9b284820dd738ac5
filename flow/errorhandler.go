package flow

import (
	"math"
	"time"
)

// ErrorStrategy selects what the engine does when routine logic (or an
// activation policy) fails.
type ErrorStrategy string

const (
	// StrategyStop fails the job: remaining work is abandoned and the
	// end-of-job hook fires.
	StrategyStop ErrorStrategy = "stop"

	// StrategyContinue records the error in execution history and keeps
	// the job running; the activation counts as completed-with-error.
	StrategyContinue ErrorStrategy = "continue"

	// StrategySkip drops the current activation silently; the routine's
	// status becomes skipped and the job keeps running.
	StrategySkip ErrorStrategy = "skip"

	// StrategyRetry re-invokes the logic up to MaxRetries times with
	// exponential backoff, falling through to STOP on final failure.
	StrategyRetry ErrorStrategy = "retry"
)

// ErrorHandler is the policy object attached to a routine or a flow that
// governs failure handling. Resolution order when logic fails: routine's
// handler → flow's handler → default STOP.
type ErrorHandler struct {
	// Strategy selects the failure behavior.
	Strategy ErrorStrategy

	// MaxRetries is the number of re-invocations after the initial
	// attempt (RETRY only). Total invocations = 1 + MaxRetries.
	MaxRetries int

	// RetryDelay is the base delay before the first retry.
	RetryDelay time.Duration

	// RetryBackoff is the multiplicative backoff factor applied per
	// attempt. Values <= 0 are treated as 1 (constant delay).
	RetryBackoff float64

	// IsCritical is recorded as the "critical" detail of the execution
	// history error entry written on the STOP path, for monitoring
	// collaborators. Other strategies do not record it.
	IsCritical bool
}

// DefaultErrorHandler returns the engine default: STOP.
func DefaultErrorHandler() *ErrorHandler {
	return &ErrorHandler{Strategy: StrategyStop}
}

// RetryHandler builds a RETRY handler with the given parameters.
func RetryHandler(maxRetries int, delay time.Duration, backoff float64) *ErrorHandler {
	return &ErrorHandler{
		Strategy:     StrategyRetry,
		MaxRetries:   maxRetries,
		RetryDelay:   delay,
		RetryBackoff: backoff,
	}
}

// retryDelayFor computes the sleep before retry number attempt (1-based):
// RetryDelay * RetryBackoff^(attempt-1).
func (h *ErrorHandler) retryDelayFor(attempt int) time.Duration {
	if h.RetryDelay <= 0 {
		return 0
	}
	backoff := h.RetryBackoff
	if backoff <= 0 {
		backoff = 1
	}
	scaled := float64(h.RetryDelay) * math.Pow(backoff, float64(attempt-1))
	if scaled > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}
