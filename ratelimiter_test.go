package errz

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestRateLimiterEnforcesMaxConcurrent(t *testing.T) {
	clock := clockz.NewFakeClock()
	l := NewRateLimiter(RateLimiterConfig{MaxConcurrent: 1, Clock: clock})

	inside := make(chan struct{})
	release := make(chan struct{})
	go l.Run(context.Background(), func(ctx context.Context) Result[any] {
		inside <- struct{}{}
		<-release
		return Ok[any](nil)
	})
	<-inside

	if l.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", l.ActiveCount())
	}

	done := make(chan struct{})
	go func() {
		l.Run(context.Background(), func(ctx context.Context) Result[any] { return Ok[any](nil) })
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected the second Run to block while the slot is occupied")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-done
}

func TestRateLimiterAcquireHonorsCancellation(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{MaxConcurrent: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.sem <- struct{}{} // occupy the only slot so acquire must block on ctx.Done
	defer func() { <-l.sem }()

	rec := l.acquire(ctx)
	if rec == nil {
		t.Fatal("expected a cancellation error record")
	}
	if rec.Type != TypeAborted {
		t.Errorf("Type = %q, want %q", rec.Type, TypeAborted)
	}
}

func TestRateLimitMiddlewareGatesNext(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{MaxConcurrent: 2})
	mw := RateLimitMiddleware(l)
	called := false
	out := mw(CreateError("X", "m"), func(r *Record) *Record { called = true; return nil })
	if !called {
		t.Fatal("expected next to run when a slot is available")
	}
	if out != nil {
		t.Errorf("expected nil output on success, got %v", out)
	}
}
