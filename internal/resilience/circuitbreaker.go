package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Name                string        `mapstructure:"name"`
	FailureThreshold    int           `mapstructure:"failure_threshold"`
	SuccessThreshold    int           `mapstructure:"success_threshold"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxHalfOpenRequests int           `mapstructure:"max_half_open_requests"`
}

// DefaultCircuitBreakerConfig returns default configuration
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                name,
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// Counts is a snapshot of the calls seen by a breaker
type Counts struct {
	Total       int64
	Successful  int64
	Failed      int64
	Rejected    int64
	Transitions int64
}

// CircuitBreaker guards calls to a flaky dependency such as a push provider.
type CircuitBreaker struct {
	config           *CircuitBreakerConfig
	mutex            sync.Mutex
	state            State
	failures         int
	successes        int
	halfOpenRequests int
	openedAt         time.Time
	counts           Counts
	logger           *zap.Logger
	onStateChange    func(from, to State)
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
		logger: logger.With(zap.String("circuit_breaker", config.Name)),
		now:    time.Now,
	}
}

// OnStateChange registers fn to be called on every transition. fn runs
// while the breaker lock is held and must not call back into it.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.onStateChange = fn
}

// Execute runs fn unless the circuit is open. Cancellation and Permanent
// errors say nothing about the dependency's health and count as successes.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.allowRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.recordOutcome(err == nil || errors.Is(err, context.Canceled) || IsPermanent(err))
	return err
}

func (cb *CircuitBreaker) allowRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.Timeout {
			cb.counts.Rejected++
			return ErrCircuitOpen
		}
		cb.transitionTo(StateHalfOpen)
		cb.halfOpenRequests = 1
	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.config.MaxHalfOpenRequests {
			cb.counts.Rejected++
			return ErrTooManyRequests
		}
		cb.halfOpenRequests++
	}
	return nil
}

func (cb *CircuitBreaker) recordOutcome(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.counts.Total++
	if success {
		cb.counts.Successful++
	} else {
		cb.counts.Failed++
	}

	switch cb.state {
	case StateClosed:
		if success {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		if cb.halfOpenRequests > 0 {
			cb.halfOpenRequests--
		}
		if !success {
			cb.transitionTo(StateOpen)
			return
		}
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionTo(next State) {
	if cb.state == next {
		return
	}

	prev := cb.state
	cb.state = next
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenRequests = 0
	cb.counts.Transitions++
	if next == StateOpen {
		cb.openedAt = cb.now()
	}

	cb.logger.Info("Circuit breaker state transition",
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
	)
	if cb.onStateChange != nil {
		cb.onStateChange(prev, next)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

// Counts returns the call counters
func (cb *CircuitBreaker) Counts() Counts {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.counts
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.transitionTo(StateClosed)
}
