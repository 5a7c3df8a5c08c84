package errz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
)

// CircuitState is one of CLOSED, OPEN, HALF_OPEN (§4.14).
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// CircuitBreakerConfig matches §4.14's {failureThreshold, resetTimeoutMs,
// shouldTrip}.
type CircuitBreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	ShouldTrip       func(err *Record) bool
	Clock            clockz.Clock
}

const (
	CircuitBreakerOpenedTotal   = metricz.Key("policy.circuitbreaker.opened.total")
	CircuitBreakerRejectedTotal = metricz.Key("policy.circuitbreaker.rejected.total")
)

var (
	FieldCircuitState      = capitan.NewStringKey("state")
	FieldCircuitGeneration = capitan.NewIntKey("generation")

	SignalCircuitOpened   capitan.Signal = "errz.circuitbreaker.opened"
	SignalCircuitClosed   capitan.Signal = "errz.circuitbreaker.closed"
	SignalCircuitHalfOpen capitan.Signal = "errz.circuitbreaker.half-open"
	SignalCircuitRejected capitan.Signal = "errz.circuitbreaker.rejected"
)

// CircuitBreaker guards an operation with the classic closed/open/half-open
// state machine, tracked with a generation counter so a slow half-open
// trial can never be mistaken for a later generation's result (the same
// race guard as the teacher's CircuitBreaker[T]).
type CircuitBreaker struct {
	mu         sync.Mutex
	cfg        CircuitBreakerConfig
	state      CircuitState
	failures   int
	generation int
	lastFail   time.Time
	metrics    *metricz.Registry
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = clockz.RealClock
	}
	m := metricz.New()
	m.Counter(CircuitBreakerOpenedTotal)
	m.Counter(CircuitBreakerRejectedTotal)
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed, metrics: m}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Run executes fn if the breaker admits the call, tripping or recovering
// the state machine based on the outcome.
func (cb *CircuitBreaker) Run(ctx context.Context, fn func(context.Context) Result[any]) Result[any] {
	cb.mu.Lock()
	if cb.state == CircuitOpen && cb.cfg.Clock.Now().Sub(cb.lastFail) > cb.cfg.ResetTimeout {
		cb.state = CircuitHalfOpen
		cb.failures = 0
		cb.generation++
		capitan.Warn(ctx, SignalCircuitHalfOpen,
			FieldCircuitState.Field(string(cb.state)),
			FieldCircuitGeneration.Field(cb.generation))
	}
	state := cb.state
	generation := cb.generation
	cb.mu.Unlock()

	if state == CircuitOpen {
		cb.metrics.Counter(CircuitBreakerRejectedTotal).Inc()
		capitan.Error(ctx, SignalCircuitRejected, FieldCircuitState.Field(string(state)))
		return Err[any](CreateError(TypeCircuitBreakerOpen, "circuit breaker is open"))
	}

	result := fn(ctx)
	cb.recordOutcome(ctx, generation, result)
	return result
}

func (cb *CircuitBreaker) recordOutcome(ctx context.Context, generation int, result Result[any]) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if generation != cb.generation {
		// A concurrent reset/trip already moved the breaker past this call's
		// generation; this outcome no longer applies.
		return
	}

	if result.IsOk() {
		if cb.state == CircuitHalfOpen {
			cb.state = CircuitClosed
			cb.failures = 0
			capitan.Info(ctx, SignalCircuitClosed, FieldCircuitState.Field(string(cb.state)))
		} else if cb.state == CircuitClosed {
			cb.failures = 0
		}
		return
	}

	err := result.Error()
	trips := cb.cfg.ShouldTrip == nil || cb.cfg.ShouldTrip(err)
	if !trips {
		return
	}

	switch cb.state {
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.lastFail = cb.cfg.Clock.Now()
		cb.metrics.Counter(CircuitBreakerOpenedTotal).Inc()
		capitan.Error(ctx, SignalCircuitOpened, FieldCircuitState.Field(string(cb.state)))
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.state = CircuitOpen
			cb.lastFail = cb.cfg.Clock.Now()
			cb.metrics.Counter(CircuitBreakerOpenedTotal).Inc()
			capitan.Error(ctx, SignalCircuitOpened, FieldCircuitState.Field(string(cb.state)))
		}
	}
}

// CircuitBreakerMiddleware rejects continuation of the pipeline while cb
// is open, otherwise forwards to next and feeds the outcome back into cb.
func CircuitBreakerMiddleware(cb *CircuitBreaker) Middleware {
	return func(r *Record, next func(*Record) *Record) *Record {
		res := cb.Run(context.Background(), func(ctx context.Context) Result[any] {
			out := next(r)
			if out != nil {
				return Err[any](out)
			}
			return Ok[any](nil)
		})
		if res.IsErr() {
			return res.Error()
		}
		return nil
	}
}
