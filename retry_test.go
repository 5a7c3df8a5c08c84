package errz

import (
	"context"
	"testing"
	"time"
)

func TestRetryPolicyDelayForLinear(t *testing.T) {
	p := RetryPolicy{BaseDelay: 10 * time.Millisecond, Backoff: BackoffLinear}
	if got := p.delayFor(3); got != 30*time.Millisecond {
		t.Errorf("delayFor(3) = %v, want %v", got, 30*time.Millisecond)
	}
}

func TestRetryPolicyDelayForExponential(t *testing.T) {
	p := RetryPolicy{BaseDelay: 10 * time.Millisecond, Backoff: BackoffExponential}
	if got := p.delayFor(3); got != 40*time.Millisecond {
		t.Errorf("delayFor(3) = %v, want %v", got, 40*time.Millisecond)
	}
}

func TestRetryPolicyJitterStaysInBounds(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, Backoff: BackoffLinear, Jitter: true}
	for i := 0; i < 50; i++ {
		d := p.delayFor(1)
		if d < 75*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("jittered delay %v outside [75ms,125ms]", d)
		}
	}
}

func TestWithRetrySucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) int {
		attempts++
		if attempts < 3 {
			panic("transient")
		}
		return 42
	}
	r := WithRetry(context.Background(), fn, RetryPolicy{Attempts: 5, BaseDelay: time.Millisecond})
	v, ok := r.Value()
	if !ok || v != 42 {
		t.Fatalf("WithRetry() = (%v, %v), want (42, true)", v, ok)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) int {
		attempts++
		panic("always fails")
	}
	r := WithRetry(context.Background(), fn, RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond})
	if r.IsOk() {
		t.Fatal("expected exhaustion failure")
	}
	if r.Error().Type != TypeMaxRetriesExceeded {
		t.Errorf("Type = %q, want %q", r.Error().Type, TypeMaxRetriesExceeded)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryShouldRetryStopsEarly(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) int {
		attempts++
		panic("fails")
	}
	policy := RetryPolicy{
		Attempts:  5,
		BaseDelay: time.Millisecond,
		ShouldRetry: func(err *Record, attempt int) bool {
			return attempt < 2
		},
	}
	r := WithRetry(context.Background(), fn, policy)
	if r.IsOk() {
		t.Fatal("expected a failure result")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (ShouldRetry should stop further retries)", attempts)
	}
}
