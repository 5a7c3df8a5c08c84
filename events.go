package errz

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
)

// Hook event keys for the lifecycle event bus (C13), one per emission
// point named in SPEC_FULL.md's DOMAIN STACK table.
const (
	EventErrorCreated     = hookz.Key("errz.error.created")
	EventErrorPooled      = hookz.Key("errz.error.pooled")
	EventErrorReleased    = hookz.Key("errz.error.released")
	EventErrorTransformed = hookz.Key("errz.error.transformed")
	EventErrorWrapped     = hookz.Key("errz.error.wrapped")
	EventErrorRetry       = hookz.Key("errz.error.retry")
	EventErrorRecovered   = hookz.Key("errz.error.recovered")
	EventErrorSerialized  = hookz.Key("errz.error.serialized")
)

// Structured capitan signals for internal diagnostics that are not
// lifecycle events in their own right (hook panics, config errors).
const (
	SignalHookPanic      capitan.Signal = "errz.internal.hook-panic"
	SignalConfigRejected capitan.Signal = "errz.internal.config-rejected"
)

// capitan field keys shared by the signals above.
var (
	FieldEventName = capitan.NewStringKey("event")
	FieldErrorType = capitan.NewStringKey("error_type")
	FieldReason    = capitan.NewStringKey("reason")
)

// LifecycleEvent is the single payload type carried by every hook key
// registered on the bus. Kind disambiguates which key delivered it,
// mirroring the teacher's per-connector Event struct with a Name field
// but collapsed to one type since errz's events all describe the same
// thing: something happened to a Record.
type LifecycleEvent struct {
	Kind    string
	Record  *Record
	Extra   map[string]any
}

// eventBus wraps hookz.Hooks with panic-safe emission: a listener panic
// is recovered, reported via the capitan diagnostic signal, and never
// propagates into the factory/pool call path that triggered it.
type eventBus struct {
	hooks  *hookz.Hooks[LifecycleEvent]
	signal *capitan.Signal
}

func newEventBus() *eventBus {
	return &eventBus{hooks: hookz.New[LifecycleEvent]()}
}

var globalBus = newEventBus()

// on registers handler for key and returns a disposer and the
// registration error. The returned disposer is always a no-op: calling it
// does not remove handler, which stays registered for the life of the
// bus. Callers check the returned error to know whether registration
// succeeded at all.
func (b *eventBus) on(key hookz.Key, handler func(context.Context, LifecycleEvent) error) (dispose func(), err error) {
	_, err = b.hooks.Hook(key, handler)
	return func() {}, err
}

func (b *eventBus) emit(ctx context.Context, key hookz.Key, evt LifecycleEvent) {
	if b.hooks.ListenerCount(key) == 0 {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			reportHookPanic(key, p)
		}
	}()
	_ = b.hooks.Emit(ctx, key, evt) //nolint:errcheck
}

func reportHookPanic(key hookz.Key, p any) {
	capitan.Error(context.Background(), SignalHookPanic,
		FieldEventName.Field(string(key)),
		FieldReason.Field(panicString(p)),
	)
}

func panicString(p any) string {
	if err, ok := p.(error); ok {
		return err.Error()
	}
	if s, ok := p.(string); ok {
		return s
	}
	return "non-error panic value"
}

// OnErrorCreated registers a listener invoked after every successful
// createError call (including the minimal-mode fast path).
func OnErrorCreated(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorCreated, handler)
}

// OnErrorPooled registers a listener invoked when a Record is acquired
// from the pool.
func OnErrorPooled(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorPooled, handler)
}

// OnErrorReleased registers a listener invoked when a Record is released
// back to its pool.
func OnErrorReleased(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorReleased, handler)
}

// OnErrorTransformed registers a listener invoked when middleware
// replaces a Result's error branch.
func OnErrorTransformed(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorTransformed, handler)
}

// OnErrorWrapped registers a listener invoked after Wrap/FromThrown.
func OnErrorWrapped(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorWrapped, handler)
}

// OnErrorRetry registers a listener invoked before each retry attempt.
func OnErrorRetry(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorRetry, handler)
}

// OnErrorRecovered registers a listener invoked when a panic is recovered
// by TrySync/TryAsync.
func OnErrorRecovered(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorRecovered, handler)
}

// OnErrorSerialized registers a listener invoked after SerializeError.
func OnErrorSerialized(handler func(context.Context, LifecycleEvent) error) (func(), error) {
	return globalBus.on(EventErrorSerialized, handler)
}

func emitErrorCreated(r *Record) {
	globalBus.emit(context.Background(), EventErrorCreated, LifecycleEvent{Kind: "created", Record: r})
}

func emitErrorPooled(r *Record) {
	globalBus.emit(context.Background(), EventErrorPooled, LifecycleEvent{Kind: "pooled", Record: r})
}

func emitPoolReleased(r *Record) {
	globalBus.emit(context.Background(), EventErrorReleased, LifecycleEvent{Kind: "released", Record: r})
}

func emitErrorWrapped(r *Record) {
	globalBus.emit(context.Background(), EventErrorWrapped, LifecycleEvent{Kind: "wrapped", Record: r})
}

func emitErrorTransformed(r *Record, middlewareName string) {
	globalBus.emit(context.Background(), EventErrorTransformed, LifecycleEvent{
		Kind:   "transformed",
		Record: r,
		Extra:  map[string]any{"middleware": middlewareName},
	})
}

func emitErrorRetry(r *Record, attempt int) {
	globalBus.emit(context.Background(), EventErrorRetry, LifecycleEvent{
		Kind:   "retry",
		Record: r,
		Extra:  map[string]any{"attempt": attempt},
	})
}

func emitErrorRecovered(r *Record) {
	globalBus.emit(context.Background(), EventErrorRecovered, LifecycleEvent{Kind: "recovered", Record: r})
}

func emitErrorSerialized(r *Record) {
	globalBus.emit(context.Background(), EventErrorSerialized, LifecycleEvent{Kind: "serialized", Record: r})
}
