package errz

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func runCB(cb *CircuitBreaker, fail bool) Result[any] {
	return cb.Run(context.Background(), func(ctx context.Context) Result[any] {
		if fail {
			return Err[any](CreateError("ServiceError", "boom"))
		}
		return Ok[any](nil)
	})
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	clock := clockz.NewFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: 5 * time.Second, Clock: clock})

	for i := 0; i < 3; i++ {
		r := runCB(cb, true)
		if r.IsOk() {
			t.Fatalf("attempt %d: expected failure", i)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("State() = %v, want %v", cb.State(), CircuitOpen)
	}

	r := runCB(cb, false)
	if r.IsOk() {
		t.Fatal("expected the breaker to reject calls while open")
	}
	if r.Error().Type != TypeCircuitBreakerOpen {
		t.Errorf("Type = %q, want %q", r.Error().Type, TypeCircuitBreakerOpen)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	clock := clockz.NewFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: 5 * time.Second, Clock: clock})

	runCB(cb, true)
	runCB(cb, true)
	if cb.State() != CircuitOpen {
		t.Fatalf("State() = %v, want %v", cb.State(), CircuitOpen)
	}

	clock.Advance(6 * time.Second)

	r := runCB(cb, false)
	if !r.IsOk() {
		t.Fatal("expected the half-open trial to be admitted and succeed")
	}
	if cb.State() != CircuitClosed {
		t.Errorf("State() = %v, want %v after a successful half-open trial", cb.State(), CircuitClosed)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := clockz.NewFakeClock()
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: 5 * time.Second, Clock: clock})

	runCB(cb, true)
	runCB(cb, true)
	clock.Advance(6 * time.Second)

	r := runCB(cb, true)
	if r.IsOk() {
		t.Fatal("expected the half-open trial to fail")
	}
	if cb.State() != CircuitOpen {
		t.Errorf("State() = %v, want %v after a failed half-open trial", cb.State(), CircuitOpen)
	}
}

func TestCircuitBreakerShouldTripFiltersFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ShouldTrip:       func(err *Record) bool { return err.Type == "TripMe" },
	})
	cb.Run(context.Background(), func(ctx context.Context) Result[any] {
		return Err[any](CreateError("DontTripMe", "ignored"))
	})
	if cb.State() != CircuitClosed {
		t.Fatalf("State() = %v, want %v (ShouldTrip should have vetoed the trip)", cb.State(), CircuitClosed)
	}
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	mw := CircuitBreakerMiddleware(cb)

	out := mw(CreateError("X", "m"), func(r *Record) *Record { return nil })
	if out != nil {
		t.Errorf("expected nil when next reports success, got %v", out)
	}

	out2 := mw(CreateError("X", "m"), func(r *Record) *Record { return CreateError("Y", "still failing") })
	if out2 == nil {
		t.Fatal("expected the middleware to surface a failure record")
	}
}
