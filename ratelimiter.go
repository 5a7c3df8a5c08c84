package errz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
)

// RateLimiterConfig matches §4.14's {maxConcurrent, minIntervalMs} model:
// at most maxConcurrent operations run at once, and starts are spaced at
// least minIntervalMs apart regardless of concurrency.
type RateLimiterConfig struct {
	MaxConcurrent int
	MinInterval   time.Duration
	Clock         clockz.Clock
}

const (
	RateLimiterAllowedTotal = metricz.Key("policy.ratelimiter.allowed.total")
	RateLimiterQueuedGauge  = metricz.Key("policy.ratelimiter.queue_size")
	RateLimiterActiveGauge  = metricz.Key("policy.ratelimiter.active_count")
)

// RateLimiter gates concurrent execution and minimum start spacing,
// matching the teacher's mutex-guarded, clock-injected connector shape
// (RateLimiter[T] in the retrieval pack) but reworked from a token-bucket
// rate to the spec's {maxConcurrent, minIntervalMs} queueing contract.
type RateLimiter struct {
	mu          sync.Mutex
	cfg         RateLimiterConfig
	sem         chan struct{}
	lastStart   time.Time
	queueSize   int
	activeCount int
	metrics     *metricz.Registry
}

// NewRateLimiter constructs a limiter ready for concurrent use. Like the
// teacher's RateLimiter, this is stateful and meant to be shared: creating
// a fresh one per call defeats the purpose.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = clockz.RealClock
	}
	m := metricz.New()
	m.Counter(RateLimiterAllowedTotal)
	m.Gauge(RateLimiterQueuedGauge)
	m.Gauge(RateLimiterActiveGauge)
	return &RateLimiter{
		cfg:     cfg,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		metrics: m,
	}
}

func (l *RateLimiter) QueueSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queueSize
}

func (l *RateLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeCount
}

// acquire blocks until a concurrency slot is free and the minimum
// interval since the last start has elapsed, or ctx is canceled first.
func (l *RateLimiter) acquire(ctx context.Context) *Record {
	l.mu.Lock()
	l.queueSize++
	l.metrics.Gauge(RateLimiterQueuedGauge).Set(float64(l.queueSize))
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.queueSize--
		l.metrics.Gauge(RateLimiterQueuedGauge).Set(float64(l.queueSize))
		l.mu.Unlock()
	}()

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return CreateError(TypeAborted, "rate limiter queue canceled")
	}

	l.mu.Lock()
	wait := l.minWait()
	l.mu.Unlock()
	if wait > 0 {
		select {
		case <-l.cfg.Clock.After(wait):
		case <-ctx.Done():
			<-l.sem
			return CreateError(TypeAborted, "rate limiter queue canceled")
		}
	}

	l.mu.Lock()
	l.lastStart = l.cfg.Clock.Now()
	l.activeCount++
	l.metrics.Gauge(RateLimiterActiveGauge).Set(float64(l.activeCount))
	l.mu.Unlock()

	l.metrics.Counter(RateLimiterAllowedTotal).Inc()
	capitan.Info(ctx, SignalRateLimiterAllowed, FieldActiveCount.Field(l.activeCount))
	return nil
}

func (l *RateLimiter) release() {
	l.mu.Lock()
	l.activeCount--
	l.metrics.Gauge(RateLimiterActiveGauge).Set(float64(l.activeCount))
	l.mu.Unlock()
	<-l.sem
}

func (l *RateLimiter) minWait() time.Duration {
	if l.lastStart.IsZero() || l.cfg.MinInterval <= 0 {
		return 0
	}
	elapsed := l.cfg.Clock.Now().Sub(l.lastStart)
	if elapsed >= l.cfg.MinInterval {
		return 0
	}
	return l.cfg.MinInterval - elapsed
}

// Run executes fn once a slot is available, honoring the limiter's
// concurrency and spacing limits.
func (l *RateLimiter) Run(ctx context.Context, fn func(context.Context) Result[any]) Result[any] {
	if rec := l.acquire(ctx); rec != nil {
		return Err[any](rec)
	}
	defer l.release()
	return fn(ctx)
}

// RateLimitMiddleware gates continuation of the pipeline through l before
// invoking next, used when rate limiting belongs at the error-handling
// boundary rather than around the whole operation.
func RateLimitMiddleware(l *RateLimiter) Middleware {
	return func(r *Record, next func(*Record) *Record) *Record {
		rec := l.acquire(context.Background())
		if rec != nil {
			return rec
		}
		defer l.release()
		return next(r)
	}
}

// Signal/field additions specific to this connector's capitan usage.
const (
	SignalRateLimiterAllowed capitan.Signal = "errz.ratelimiter.allowed"
)

var FieldActiveCount = capitan.NewIntKey("active_count")
