// Package resilience provides the circuit breaker, retry policy and health
// checks that guard the external analysis call.
package resilience

import (
	"context"
	"sync"
	"time"

	apperrors "tradecoach/internal/errors"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // Normal operation
	CircuitOpen     CircuitState = "OPEN"      // Failing, rejecting requests
	CircuitHalfOpen CircuitState = "HALF_OPEN" // Testing if service recovered
)

// CircuitBreakerConfig holds circuit breaker configuration.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening the circuit
	FailureThreshold int
	// SuccessThreshold is the number of successes in half-open state to close
	SuccessThreshold int
	// Timeout is how long to wait before transitioning from open to half-open
	Timeout time.Duration
	// IsFailure decides whether an error counts against the circuit. Nil counts every error.
	IsFailure func(error) bool
}

// DefaultCircuitBreakerConfig returns the defaults used for the LLM client.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		Timeout:          60 * time.Second,
		IsFailure:        countsAgainstCircuit,
	}
}

// countsAgainstCircuit ignores errors that say nothing about upstream health.
func countsAgainstCircuit(err error) bool {
	switch {
	case apperrors.Is(err, apperrors.ErrMissingAPIKey),
		apperrors.Is(err, apperrors.ErrInputValidation),
		apperrors.Is(err, context.Canceled):
		return false
	}
	return true
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	now    func() time.Time

	mu              sync.RWMutex
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	lastStateChange time.Time
	trialInFlight   bool

	totalRequests  int64
	totalFailures  int64
	totalSuccesses int64
	totalRejected  int64
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:            name,
		config:          config,
		now:             time.Now,
		state:           CircuitClosed,
		lastStateChange: time.Now(),
	}
}

// ExecuteWithResult runs fn with circuit breaker protection and returns its result.
// It returns apperrors.ErrCircuitOpen without calling fn while the circuit is open,
// and while another half-open trial call is still in flight.
func ExecuteWithResult[T any](cb *CircuitBreaker, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	trial, err := cb.allowRequest()
	if err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		cb.release(trial)
		return zero, err
	}

	v, err := fn(ctx)
	switch {
	case err == nil:
		cb.recordSuccess(trial)
		return v, nil
	case cb.config.IsFailure == nil || cb.config.IsFailure(err):
		cb.recordFailure(trial)
	default:
		cb.release(trial)
	}
	return zero, err
}

// allowRequest reports whether the caller holds the half-open trial slot.
func (cb *CircuitBreaker) allowRequest() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.config.Timeout {
			cb.totalRejected++
			return false, apperrors.Wrapf(apperrors.ErrCircuitOpen, "%s", cb.name)
		}
		cb.transitionTo(CircuitHalfOpen)
		fallthrough
	case CircuitHalfOpen:
		if cb.trialInFlight {
			cb.totalRejected++
			return false, apperrors.Wrapf(apperrors.ErrCircuitOpen, "%s: trial in flight", cb.name)
		}
		cb.trialInFlight = true
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) release(trial bool) {
	if !trial {
		return
	}
	cb.mu.Lock()
	cb.trialInFlight = false
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) recordSuccess(trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialInFlight = false
	}
	cb.totalSuccesses++
	switch cb.state {
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(CircuitClosed)
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) recordFailure(trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trialInFlight = false
	}
	cb.totalFailures++
	cb.lastFailureTime = cb.now()
	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure in half-open goes back to open
		cb.transitionTo(CircuitOpen)
	}
}

func (cb *CircuitBreaker) transitionTo(state CircuitState) {
	cb.state = state
	cb.lastStateChange = cb.now()
	cb.failures = 0
	cb.successes = 0
	cb.trialInFlight = false
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Name returns the circuit breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Stats returns circuit breaker statistics.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerStats{
		Name:            cb.name,
		State:           cb.state,
		TotalRequests:   cb.totalRequests,
		TotalSuccesses:  cb.totalSuccesses,
		TotalFailures:   cb.totalFailures,
		TotalRejected:   cb.totalRejected,
		CurrentFailures: cb.failures,
		LastFailureTime: cb.lastFailureTime,
		LastStateChange: cb.lastStateChange,
	}
}

// CircuitBreakerStats holds circuit breaker statistics.
type CircuitBreakerStats struct {
	Name            string       `json:"name"`
	State           CircuitState `json:"state"`
	TotalRequests   int64        `json:"totalRequests"`
	TotalSuccesses  int64        `json:"totalSuccesses"`
	TotalFailures   int64        `json:"totalFailures"`
	TotalRejected   int64        `json:"totalRejected"`
	CurrentFailures int          `json:"currentFailures"`
	LastFailureTime time.Time    `json:"lastFailureTime"`
	LastStateChange time.Time    `json:"lastStateChange"`
}

// FailureRate returns the failure rate as a percentage.
func (s CircuitBreakerStats) FailureRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.TotalFailures) / float64(s.TotalRequests) * 100
}
