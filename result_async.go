package errz

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// TryAsyncOptions customizes a TryAsync/TryAwait call. Timeout is the
// library's own deadline mechanism; Signal lets a caller supply an
// already-running context (e.g. an inbound request's ctx) whose
// cancellation should also resolve the Result. Go's context.Context plays
// the role the source specification's AbortSignal plays: fn receives it
// and is expected to check ctx.Done()/ctx.Err() to stop promptly.
type TryAsyncOptions struct {
	Timeout   time.Duration
	Signal    context.Context
	ErrorType string
	Message   string
	Context   Context
	Clock     clockz.Clock
}

func (o TryAsyncOptions) clock() clockz.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return clockz.RealClock
}

// TryAsync invokes fn with a context derived from opts.Signal (or
// context.Background() if none was supplied), applying opts.Timeout if
// set. Exactly one cancellation cause wins: whichever of the timeout or
// the external signal fires first determines whether the Result carries
// a TimeoutError or an ABORTED error (§4.11).
func TryAsync[T any](fn func(context.Context) T, opts ...TryAsyncOptions) Result[T] {
	var opt TryAsyncOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	parent := opt.Signal
	if parent == nil {
		parent = context.Background()
	}

	ctx := parent
	cancel := func() {}
	if opt.Timeout > 0 {
		ctx, cancel = opt.clock().WithTimeout(parent, opt.Timeout)
	}
	defer cancel()

	type outcome struct {
		value T
		rec   *Record
	}
	ch := make(chan outcome, 1)

	go func() {
		var recovered *Record
		defer func() {
			if recovered != nil {
				ch <- outcome{rec: recovered}
				return
			}
		}()
		defer recoverFromPanic(&recovered, "tryAsync")
		v := fn(ctx)
		if recovered == nil {
			ch <- outcome{value: v}
		}
	}()

	select {
	case out := <-ch:
		if ctx.Err() != nil {
			// The deadline or the caller's signal fired before this outcome
			// was observed; the cancellation wins.
			return runMiddleware(Err[T](cancellationRecord(parent, opt.Timeout, ctx)))
		}
		if out.rec != nil {
			return runMiddleware(Err[T](classifyRecovered(out.rec, TrySyncOptions(opt.syncOpts()))))
		}
		return runMiddleware(Ok(out.value))
	case <-ctx.Done():
		rec := cancellationRecord(parent, opt.Timeout, ctx)
		return runMiddleware(Err[T](rec))
	}
}

func (o TryAsyncOptions) syncOpts() TrySyncOptions {
	return TrySyncOptions{Context: o.Context, ErrorType: o.ErrorType, Message: o.Message}
}

// cancellationRecord distinguishes a timeout from an external cancellation
// by checking which context actually expired: if the parent (caller's own
// signal) is already done, this is an external ABORTED; otherwise the
// library's own timeout fired.
func cancellationRecord(parent context.Context, timeout time.Duration, ctx context.Context) *Record {
	if parent.Err() != nil {
		return CreateError(TypeAborted, "operation aborted by caller")
	}
	if timeout > 0 {
		return CreateError(TypeTimeoutError, "operation timed out")
	}
	return CreateError(TypeAborted, "operation canceled")
}

// TryAwait wraps an already-started computation exposed as a function
// returning (T, error), applying the same timeout/cancellation contract as
// TryAsync.
func TryAwait[T any](await func(context.Context) (T, error), opts ...TryAsyncOptions) Result[T] {
	return TryAsync(func(ctx context.Context) T {
		v, err := await(ctx)
		if err != nil {
			panic(err)
		}
		return v
	}, opts...)
}

// TryAllAsync runs every fn concurrently and waits for all to settle. The
// first error cancels a shared context so the remaining goroutines can
// stop promptly; the returned Result is a failure carrying that first
// error, or a success with every value in input order.
func TryAllAsync[T any](fns []func(context.Context) T, opts ...TryAsyncOptions) Result[[]T] {
	var opt TryAsyncOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	parent := opt.Signal
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make([]Result[T], len(fns))
	done := make(chan int, len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			results[i] = TryAsync(fn, TryAsyncOptions{Signal: ctx, Timeout: opt.Timeout, Clock: opt.Clock})
			done <- i
		}()
	}

	for range fns {
		i := <-done
		if results[i].IsErr() {
			cancel()
		}
	}

	out := make([]T, len(fns))
	for i, r := range results {
		if r.IsErr() {
			return Err[[]T](r.Error())
		}
		out[i], _ = r.Value()
	}
	return Ok(out)
}

// TryAnyAsync races every fn, resolving with the first success. If every
// fn fails, the Result carries an eagerly constructed MultipleErrors
// record listing every constituent failure (OQ2): the aggregate is built
// the moment the last attempt fails, not lazily on access.
func TryAnyAsync[T any](fns []func(context.Context) T, opts ...TryAsyncOptions) Result[T] {
	var opt TryAsyncOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	parent := opt.Signal
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	type outcome struct {
		idx int
		r   Result[T]
	}
	ch := make(chan outcome, len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			ch <- outcome{idx: i, r: TryAsync(fn, TryAsyncOptions{Signal: ctx, Timeout: opt.Timeout, Clock: opt.Clock})}
		}()
	}

	errs := make([]*Record, len(fns))
	remaining := len(fns)
	for remaining > 0 {
		out := <-ch
		remaining--
		if out.r.IsOk() {
			cancel()
			return out.r
		}
		errs[out.idx] = out.r.Error()
	}
	return Err[T](CombineErrors(errs, TypeMultipleErrors, "all attempts failed"))
}

// TryAnySequential tries each fn in order, returning the first success
// without starting the next attempt.
func TryAnySequential[T any](fns []func(context.Context) T, opts ...TryAsyncOptions) Result[T] {
	var opt TryAsyncOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	var last *Record
	for _, fn := range fns {
		r := TryAsync(fn, opt)
		if r.IsOk() {
			return r
		}
		last = r.Error()
	}
	return Err[T](last)
}

// WithTimeout runs a Result-producing fn under a deadline of ms, for
// callers that build their Result outside TryAsync. If fn has not returned
// when the deadline passes, the Result is a TimeoutError carrying message
// (or a default message). The deadline uses context.WithTimeout and the
// real clock; no clockz.Clock is consulted.
func WithTimeout[T any](fn func(context.Context) Result[T], ms time.Duration, message string) Result[T] {
	ctx, cancel := context.WithTimeout(context.Background(), ms)
	defer cancel()

	ch := make(chan Result[T], 1)
	go func() { ch <- fn(ctx) }()

	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		msg := message
		if msg == "" {
			msg = "operation timed out"
		}
		return Err[T](CreateError(TypeTimeoutError, msg))
	}
}

// ProgressFunc reports fractional completion in [0,1].
type ProgressFunc func(fraction float64)

// WithProgress passes onProgress to fn, letting long-running operations
// report incremental completion while still returning a Result.
func WithProgress[T any](fn func(context.Context, ProgressFunc) T, onProgress ProgressFunc, opts ...TryAsyncOptions) Result[T] {
	return TryAsync(func(ctx context.Context) T {
		return fn(ctx, onProgress)
	}, opts...)
}
