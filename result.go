package errz

import "fmt"

// Result is the discriminated union every fallible operation in this
// package returns instead of throwing: either a success value of type T
// or a branded *Record. Constructed only via Ok/Err so the invariant
// "exactly one branch is populated" cannot be broken from outside the
// package.
type Result[T any] struct {
	value T
	err   *Record
	ok    bool
}

// Ok constructs a successful Result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err constructs a failed Result. Passing a nil record still produces a
// failed Result — callers that need "no error" use Ok instead.
func Err[T any](err *Record) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether r holds a success value.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether r holds an error. Equivalent to IsError(r.err)
// whenever r is a success or was built by Err from a record made by this
// package's factory; Err(nil) is a failure for which IsError is false.
func (r Result[T]) IsErr() bool { return !r.ok }

// Error returns the failure branch, or nil if r is a success.
func (r Result[T]) Error() *Record { return r.err }

// Value returns the success branch and whether r was a success, without
// panicking — the Go-idiomatic comma-ok alternative to Unwrap.
func (r Result[T]) Value() (T, bool) { return r.value, r.ok }

// TrySyncTuple returns the Go "(T, error)" tuple shape: a zero value and
// the *Record on failure, or the value and nil on success.
func (r Result[T]) TrySyncTuple() (T, *Record) {
	if r.ok {
		return r.value, nil
	}
	var zero T
	return zero, r.err
}

// Unwrap returns the success value or panics carrying r.Error(). Without
// message the panic value is the *Record itself; with a non-empty message
// it is an error whose text starts with message and which unwraps to the
// *Record.
func (r Result[T]) Unwrap(message ...string) T {
	if r.ok {
		return r.value
	}
	if len(message) > 0 && message[0] != "" {
		panic(fmt.Errorf("%s: %w", message[0], r.err))
	}
	panic(r.err)
}

// UnwrapOr returns the success value or def on failure.
func (r Result[T]) UnwrapOr(def T) T {
	if r.ok {
		return r.value
	}
	return def
}

// UnwrapOrElse returns the success value or the result of fn(r.Error()).
func (r Result[T]) UnwrapOrElse(fn func(*Record) T) T {
	if r.ok {
		return r.value
	}
	return fn(r.err)
}

// TrySyncOptions customizes a TrySync/TrySyncTuple call.
type TrySyncOptions struct {
	Context   Context
	ErrorType string
	Message   string
}

// TrySync invokes fn and converts a panic into a Result failure branch
// instead of letting it propagate, implementing the "value instead of
// throw" contract (P1: on success, TrySync(fn) observably equals fn()).
func TrySync[T any](fn func() T, opts ...TrySyncOptions) (result Result[T]) {
	var opt TrySyncOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	var recovered *Record
	defer func() {
		if recovered != nil {
			result = Err[T](classifyRecovered(recovered, opt))
		}
		result = runMiddleware(result)
	}()
	defer recoverFromPanic(&recovered, "trySync")

	return Ok(fn())
}

func classifyRecovered(base *Record, opt TrySyncOptions) *Record {
	if opt.ErrorType == "" && opt.Message == "" && opt.Context == nil {
		return base
	}
	typ := opt.ErrorType
	if typ == "" {
		typ = base.Type
	}
	msg := opt.Message
	if msg == "" {
		msg = base.Message
	}
	var o []ErrorOption
	o = append(o, WithCause(base))
	if opt.Context != nil {
		o = append(o, WithContext(opt.Context))
	}
	return Wrap(base, typ, msg, o...)
}

// MatchTryResult performs exhaustive handling of r, returning whichever
// branch's callback produces.
func MatchTryResult[T, R any](r Result[T], ok func(T) R, err func(*Record) R) R {
	if r.ok {
		return ok(r.value)
	}
	return err(r.err)
}

// TryMap transforms the success branch, passing failures through
// unchanged.
func TryMap[T, R any](r Result[T], fn func(T) R) Result[R] {
	if r.ok {
		return Ok(fn(r.value))
	}
	return Err[R](r.err)
}

// TryChain flat-maps the success branch into another Result, passing
// failures through unchanged.
func TryChain[T, R any](r Result[T], fn func(T) Result[R]) Result[R] {
	if r.ok {
		return fn(r.value)
	}
	return Err[R](r.err)
}

// TryAll collects rs, short-circuiting on the first error and preserving
// the order of successes.
func TryAll[T any](rs []Result[T]) Result[[]T] {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		if !r.ok {
			return Err[[]T](r.err)
		}
		out = append(out, r.value)
	}
	return Ok(out)
}

// TryAny returns the first success in rs, or a MultipleErrors aggregate of
// every failure if none succeeded.
func TryAny[T any](rs []Result[T]) Result[T] {
	errs := make([]*Record, 0, len(rs))
	for _, r := range rs {
		if r.ok {
			return r
		}
		errs = append(errs, r.err)
	}
	return Err[T](CombineErrors(errs, TypeMultipleErrors, "all attempts failed"))
}

// PartitionResults splits rs into its successes and errors, preserving
// relative order within each bucket.
func PartitionResults[T any](rs []Result[T]) (successes []T, errors []*Record) {
	for _, r := range rs {
		if r.ok {
			successes = append(successes, r.value)
		} else {
			errors = append(errors, r.err)
		}
	}
	return successes, errors
}

// FilterSuccess returns only the success values from rs.
func FilterSuccess[T any](rs []Result[T]) []T {
	successes, _ := PartitionResults(rs)
	return successes
}

// FilterErrors returns only the error records from rs.
func FilterErrors[T any](rs []Result[T]) []*Record {
	_, errors := PartitionResults(rs)
	return errors
}

// CombineErrors aggregates errors into a single MultipleErrors Record
// whose context lists the constituents (§4.11 "tryAnyAsync" uses the same
// aggregation for its all-failed case).
func CombineErrors(errors []*Record, typ string, message string) *Record {
	if typ == "" {
		typ = TypeMultipleErrors
	}
	if message == "" {
		message = "multiple errors occurred"
	}
	list := make([]any, 0, len(errors))
	for _, e := range errors {
		list = append(list, e)
	}
	return CreateError(typ, message, WithContext(Context{"errors": list, "count": len(errors)}))
}
