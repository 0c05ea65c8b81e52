package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"    // 정상 작동
	CircuitStateOpen     CircuitState = "OPEN"      // 서비스 차단
	CircuitStateHalfOpen CircuitState = "HALF_OPEN" // 복구 시도 중
)

// String implements Stringer interface
func (s CircuitState) String() string {
	return string(s)
}

// StateChangeFunc is notified after every transition, with the lock released.
type StateChangeFunc func(name string, from, to CircuitState)

// CircuitBreaker fails calls fast after consecutive failures. It never retries
// on its own; an OPEN circuit moves to HALF_OPEN once resetTimeout elapses and
// admits a single trial call whose result closes or reopens it.
type CircuitBreaker struct {
	name             string
	state            CircuitState
	trialInFlight    bool
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	nextRetryTime    time.Time
	onStateChange    StateChangeFunc
	now              func() time.Time
	logger           *zap.Logger
	mu               sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		state:            CircuitStateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
		logger:           logger,
	}
}

// OnStateChange registers a transition observer. Call before first use.
func (cb *CircuitBreaker) OnStateChange(fn StateChangeFunc) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// GetState returns the current circuit state
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	from, to, changed := cb.refreshLocked()
	state := cb.state
	notify := cb.onStateChange
	cb.mu.Unlock()

	if changed && notify != nil {
		notify(cb.name, from, to)
	}
	return state
}

// Allow reports whether a call may proceed. In HALF_OPEN only one trial call
// is admitted until its outcome is recorded. Every admitted call must end in
// RecordSuccess, RecordFailure or RecordNeutral.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	from, to, changed := cb.refreshLocked()
	allowed := true
	switch cb.state {
	case CircuitStateOpen:
		allowed = false
	case CircuitStateHalfOpen:
		allowed = !cb.trialInFlight
		cb.trialInFlight = true
	}
	notify := cb.onStateChange
	cb.mu.Unlock()

	if changed && notify != nil {
		notify(cb.name, from, to)
	}
	return allowed
}

// RecordNeutral ends a call whose outcome says nothing about upstream health,
// such as a caller-side cancellation or a per-resource rejection. It frees the
// HALF_OPEN trial slot without changing state or counters.
func (cb *CircuitBreaker) RecordNeutral() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.trialInFlight = false
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	var from, to CircuitState
	changed := false
	if cb.state == CircuitStateHalfOpen {
		cb.logger.Info("Circuit Breaker: Service recovered, transitioning to CLOSED",
			zap.String("name", cb.name))
		from, to, changed = cb.transitionTo(CircuitStateClosed)
	} else if cb.failureCount > 0 {
		cb.logger.Debug("Circuit Breaker: Resetting failure count",
			zap.String("name", cb.name),
			zap.Int("was", cb.failureCount))
	}
	cb.failureCount = 0
	cb.trialInFlight = false
	notify := cb.onStateChange
	cb.mu.Unlock()

	if changed && notify != nil {
		notify(cb.name, from, to)
	}
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	cb.failureCount++
	cb.trialInFlight = false

	cb.logger.Warn("Circuit Breaker: Failure recorded",
		zap.String("name", cb.name),
		zap.Int("count", cb.failureCount),
		zap.Int("threshold", cb.failureThreshold))

	var from, to CircuitState
	changed := false
	switch {
	case cb.state == CircuitStateHalfOpen:
		cb.logger.Error("Circuit Breaker: Recovery failed, reopening circuit",
			zap.String("name", cb.name))
		cb.nextRetryTime = cb.now().Add(cb.resetTimeout)
		from, to, changed = cb.transitionTo(CircuitStateOpen)
	case cb.state == CircuitStateClosed && cb.failureCount >= cb.failureThreshold:
		cb.logger.Error("Circuit Breaker: Threshold reached, OPENING circuit",
			zap.String("name", cb.name),
			zap.Int("threshold", cb.failureThreshold))
		cb.nextRetryTime = cb.now().Add(cb.resetTimeout)
		from, to, changed = cb.transitionTo(CircuitStateOpen)
	}
	notify := cb.onStateChange
	cb.mu.Unlock()

	if changed && notify != nil {
		notify(cb.name, from, to)
	}
}

// refreshLocked moves an expired OPEN circuit to HALF_OPEN.
func (cb *CircuitBreaker) refreshLocked() (CircuitState, CircuitState, bool) {
	if cb.state == CircuitStateOpen && !cb.now().Before(cb.nextRetryTime) {
		return cb.transitionTo(CircuitStateHalfOpen)
	}
	return cb.state, cb.state, false
}

// transitionTo changes the circuit state (internal, must be called with lock held)
func (cb *CircuitBreaker) transitionTo(newState CircuitState) (CircuitState, CircuitState, bool) {
	oldState := cb.state
	cb.state = newState
	cb.trialInFlight = false

	nextRetry := "n/a"
	if newState == CircuitStateOpen {
		nextRetry = cb.nextRetryTime.Format(time.RFC3339)
	}

	cb.logger.Info("Circuit Breaker: State transition",
		zap.String("name", cb.name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failure_count", cb.failureCount),
		zap.String("next_retry", nextRetry))

	return oldState, newState, oldState != newState
}

// GetStatus returns the current status
func (cb *CircuitBreaker) GetStatus() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	status := CircuitBreakerStatus{
		State:        cb.state,
		FailureCount: cb.failureCount,
	}

	if cb.state == CircuitStateOpen {
		next := cb.nextRetryTime
		status.NextRetryTime = &next
	}

	return status
}

// CircuitBreakerStatus represents the circuit breaker status
type CircuitBreakerStatus struct {
	State         CircuitState `json:"state"`
	FailureCount  int          `json:"failure_count"`
	NextRetryTime *time.Time   `json:"next_retry_time,omitempty"`
}
