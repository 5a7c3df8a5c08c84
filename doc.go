// Package errz provides value-based error handling for Go: operations that
// may fail return a Result[T] instead of panicking or returning a bare
// error, and every failure materializes as a branded *Record carrying
// source location, stack, context, and a structured cause.
//
// # Core Concepts
//
//   - Record: an immutable, branded error value (see IsError).
//   - Result[T]: a sum type, Ok(T) or Err(*Record), produced by TrySync
//     and TryAsync instead of a panic/error pair.
//   - A configuration subsystem (Configure, GetConfig, CreateScope) that
//     controls how records are built: stack capture, source extraction,
//     pooling, interning, and lazy materialization are all toggles on
//     the active Config.
//
// # Quick Start
//
//	cfg, _ := errz.ConfigurePreset(errz.PresetDevelopment)
//	_ = cfg
//
//	result := errz.TrySync(func() int {
//	    return mustParse("not a number")
//	})
//	if result.IsErr() {
//	    rec := result.Error()
//	    log.Printf("%s: %s (%s)", rec.Type, rec.Message, rec.Source)
//	}
//
// # Observability
//
// Every subsystem that does real work (the factory, the object pool, the
// intern table, the retry/rate-limit/circuit-breaker connectors) carries
// its own metricz.Registry; the factory and retry also carry a
// tracez.Tracer. Lifecycle events go through
// the shared event bus (events.go), which is itself a thin hookz.Hooks
// wrapper. There is no separate logging dependency: observability is the
// logging story, exactly as in the upstream pipz ecosystem this library
// is modeled on.
package errz
