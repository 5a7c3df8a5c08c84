package errz

import (
	"sync"
)

// Middleware transforms a failed Record before it reaches the caller. A
// middleware receives the current record and a next func representing the
// rest of the pipeline; calling next(r) continues the chain, and a
// middleware may also choose not to call next at all to short-circuit.
// This mirrors the teacher's Chain[T]/Sequential ordered-composition
// idiom, generalized from "next processor" to "next middleware" and
// narrowed to operate on the error branch only — middleware never sees or
// touches a Result's success value.
type Middleware func(r *Record, next func(*Record) *Record) *Record

// Pipeline is an ordered, named list of middlewares (§4.12's "global
// registry"). The zero value is usable; middlewares run in registration
// order, matching Chain.Add's append-and-preserve-order contract.
type Pipeline struct {
	mu    sync.RWMutex
	names []string
	byName map[string]Middleware
}

// globalPipeline is the active pipeline every TrySync/TryAsync combinator
// runs through exactly once, at the outermost boundary (§4.10).
var globalPipeline = &Pipeline{byName: make(map[string]Middleware)}

// Register adds or replaces a named middleware at the end of the
// pipeline. Re-registering an existing name updates it in place without
// moving its position.
func (p *Pipeline) Register(name string, m Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byName[name]; !exists {
		p.names = append(p.names, name)
	}
	p.byName[name] = m
}

// Unregister removes name from the pipeline, if present.
func (p *Pipeline) Unregister(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byName[name]; !exists {
		return
	}
	delete(p.byName, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
}

// Run executes every registered middleware, in order, around r. A nil r
// (success path) passes through untouched.
func (p *Pipeline) Run(r *Record) *Record {
	if r == nil {
		return nil
	}
	p.mu.RLock()
	chain := make([]Middleware, 0, len(p.names))
	for _, n := range p.names {
		chain = append(chain, p.byName[n])
	}
	p.mu.RUnlock()
	return compose(chain...)(r, func(rec *Record) *Record { return rec })
}

// compose combines middlewares into a single Middleware executing them in
// order, each wrapping the next's continuation.
func compose(middlewares ...Middleware) Middleware {
	if len(middlewares) == 0 {
		return func(r *Record, next func(*Record) *Record) *Record { return next(r) }
	}
	return func(r *Record, next func(*Record) *Record) *Record {
		var run func(i int, rec *Record) *Record
		run = func(i int, rec *Record) *Record {
			if i >= len(middlewares) {
				return next(rec)
			}
			return middlewares[i](rec, func(r2 *Record) *Record { return run(i+1, r2) })
		}
		return run(0, r)
	}
}

// runMiddleware passes r through the global pipeline exactly once, at the
// outermost boundary of a Result combinator (§4.10/§4.11). The success
// branch is untouched; a failure branch is replaced with whatever the
// pipeline produces, with errorTransformed emitted whenever a middleware
// actually swaps the record for a different one. A panicking middleware is
// recovered and the Result is returned as it was before the pipeline ran.
func runMiddleware[T any](r Result[T]) (out Result[T]) {
	if r.IsOk() {
		return r
	}
	defer func() {
		if recover() != nil {
			out = r
		}
	}()
	before := r.Error()
	after := globalPipeline.Run(before)
	if after != before {
		emitErrorTransformed(after, "pipeline")
	}
	return Err[T](after)
}

// RegisterMiddleware adds name to the active global pipeline.
func RegisterMiddleware(name string, m Middleware) { globalPipeline.Register(name, m) }

// UnregisterMiddleware removes name from the active global pipeline.
func UnregisterMiddleware(name string) { globalPipeline.Unregister(name) }

// Logger is the minimal sink loggingMiddleware writes to, matching the
// shape of a structured logger's single-level Log method rather than
// pulling in a concrete logging library the way the rest of the ambient
// stack pulls in capitan — middleware users bring their own sink.
type Logger interface {
	Log(level string, message string, fields map[string]any)
}

// LoggingMiddleware logs every record that passes through it and forwards
// it unchanged.
func LoggingMiddleware(logger Logger) Middleware {
	return func(r *Record, next func(*Record) *Record) *Record {
		if logger != nil {
			logger.Log("error", r.Error(), map[string]any{
				"type":   r.Type,
				"source": r.Source,
			})
		}
		return next(r)
	}
}

// TransformMiddleware rewrites r via fn before continuing the chain.
func TransformMiddleware(fn func(*Record) *Record) Middleware {
	return func(r *Record, next func(*Record) *Record) *Record {
		return next(fn(r))
	}
}

// FilterMiddleware runs inner only when pred(r) holds; otherwise r passes
// through to next unchanged.
func FilterMiddleware(pred func(*Record) bool, inner Middleware) Middleware {
	return func(r *Record, next func(*Record) *Record) *Record {
		if !pred(r) {
			return next(r)
		}
		return inner(r, next)
	}
}

// EnrichContextMiddleware merges supplier()'s map into r's context before
// continuing the chain. Installing a merged eager context replaces any
// prior lazy context field: enrichment always forces materialization.
func EnrichContextMiddleware(supplier func() Context) Middleware {
	return func(r *Record, next func(*Record) *Record) *Record {
		extra := supplier()
		if len(extra) == 0 {
			return next(r)
		}
		merged := r.GetContext().Clone()
		if merged == nil {
			merged = make(Context, len(extra))
		}
		for k, v := range extra {
			merged[k] = v
		}
		r.context = eagerField(merged)
		r.Flags = r.Flags.Set(FlagHasContext)
		return next(r)
	}
}
