package errz

import (
	"context"

	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for the factory itself, separate from the pool's own
// registry so hit/miss accounting and creation-rate accounting can be
// read independently.
const (
	FactoryCreatedTotal      = metricz.Key("factory.created.total")
	FactoryMinimalTotal      = metricz.Key("factory.minimal.total")
	FactoryOnErrorRejections = metricz.Key("factory.onerror.rejections.total")
)

// Span names/tags for createError, mirroring the retry connector's
// "process span + per-phase tags" shape.
const (
	FactorySpan = tracez.Key("errz.factory.create")

	FactoryTagType    = tracez.Tag("errz.type")
	FactoryTagMinimal = tracez.Tag("errz.minimal")
	FactoryTagPooled  = tracez.Tag("errz.pooled")
)

var (
	factoryMetrics = metricz.New()
	factoryTracer  = tracez.New()
)

func init() {
	factoryMetrics.Counter(FactoryCreatedTotal)
	factoryMetrics.Counter(FactoryMinimalTotal)
	factoryMetrics.Counter(FactoryOnErrorRejections)
}

// sharedPool backs every createError call where pooling is enabled. It is
// lazily sized to the first config that turns pooling on and is never
// resized or replaced afterward: a later PoolSize change, including one
// made through ResetConfig, has no effect on it.
var sharedPool *pool

func poolFor(size int) *pool {
	if sharedPool == nil {
		if size <= 0 {
			size = 256
		}
		sharedPool = newPool(size)
	}
	return sharedPool
}

// ErrorOption customizes a single createError call beyond the {type,
// message} pair, matching §4.8's optional input fields.
type ErrorOption func(*errorParams)

type errorParams struct {
	context           Context
	cause             any
	source            string
	sourceSet         bool
	timestamp         int64
	timestampSet      bool
	stackOffset       int
	captureStackTrace *bool
}

// WithContext attaches a structured context map to the error.
func WithContext(ctx Context) ErrorOption {
	return func(p *errorParams) { p.context = ctx }
}

// WithCause records cause without making it the wrapped error (see Wrap
// for the distinct "wrap" semantics that also classify/adopt a message).
func WithCause(cause any) ErrorOption {
	return func(p *errorParams) { p.cause = cause }
}

// WithSource overrides automatic source detection for this call.
func WithSource(source string) ErrorOption {
	return func(p *errorParams) { p.source, p.sourceSet = source, true }
}

// WithTimestamp overrides the captured creation time, in epoch millis.
func WithTimestamp(ms int64) ErrorOption {
	return func(p *errorParams) { p.timestamp, p.timestampSet = ms, true }
}

// WithStackOffset adjusts how many frames to skip when capturing source
// and stack, for callers wrapping createError in their own helper.
func WithStackOffset(n int) ErrorOption {
	return func(p *errorParams) { p.stackOffset = n }
}

// WithStackTrace forces stack capture on or off for this call, overriding
// the active configuration's CaptureStackTrace.
func WithStackTrace(capture bool) ErrorOption {
	return func(p *errorParams) { p.captureStackTrace = &capture }
}

// CreateError builds a branded Record using the global configuration,
// implementing the ten-step algorithm of §4.8.
func CreateError(typ, message string, opts ...ErrorOption) *Record {
	return createErrorWith(GetCachedConfig(), typ, message, opts...)
}

func createErrorWith(cfg *derivedConfig, typ, message string, opts ...ErrorOption) *Record {
	var p errorParams
	for _, opt := range opts {
		opt(&p)
	}

	ctx, span := factoryTracer.StartSpan(context.Background(), FactorySpan)
	defer span.Finish()
	span.SetTag(FactoryTagType, typ)

	typ = Intern(typ)

	// Step 2: minimal mode short-circuits everything else.
	if cfg.minimal {
		span.SetTag(FactoryTagMinimal, "true")
		factoryMetrics.Counter(FactoryMinimalTotal).Inc()
		factoryMetrics.Counter(FactoryCreatedTotal).Inc()
		r := &Record{
			brand:   theBrand,
			Type:    typ,
			Message: message,
			Source:  Intern("minimal"),
		}
		r.Flags = r.Flags.Set(FlagIsMinimal)
		emitErrorCreated(r)
		return r
	}

	// Step 3: source.
	source := "disabled"
	if p.sourceSet {
		source = p.source
	} else if cfg.includeSource {
		offset := cfg.sourceOffset
		if p.stackOffset != 0 {
			offset = p.stackOffset
		}
		source = captureSource(offset+1, cfg.sourceFullPath, cfg.sourceFormatter)
	}
	source = Intern(source)

	// Step 5: acquire the record.
	var r *Record
	if cfg.pooling {
		r = poolFor(cfg.poolSize).acquire()
		span.SetTag(FactoryTagPooled, "true")
	} else {
		r = &Record{brand: theBrand}
	}
	r.Type = typ
	r.Message = message
	r.Source = source
	r.Cause = p.cause

	// Step 4: stack.
	captureStack := cfg.captureStack
	if p.captureStackTrace != nil {
		captureStack = *p.captureStackTrace
	}
	if captureStack {
		offset := cfg.sourceOffset
		if p.stackOffset != 0 {
			offset = p.stackOffset
		}
		if cfg.lazyStack {
			r.stack = newLazyField(func() string { return captureStack2(offset, cfg.stackLimit) })
			r.Flags = r.Flags.Set(FlagIsLazy)
		} else {
			r.stack = eagerField(captureStack2(offset, cfg.stackLimit))
		}
		r.Flags = r.Flags.Set(FlagHasStack)
	}

	// Step 6: context.
	if !cfg.skipContext && p.context != nil {
		capturedCtx := p.context
		if cfg.deepCloneContext {
			capturedCtx = deepCloneContext(capturedCtx, cfg.maxContextSize)
		}
		r.context = eagerField(capturedCtx)
		r.Flags = r.Flags.Set(FlagHasContext)
	}

	if p.cause != nil {
		r.Flags = r.Flags.Set(FlagHasCause)
	}

	// Step 8: timestamp.
	if cfg.skipTimestamp {
		r.Timestamp = 0
	} else if p.timestampSet {
		r.Timestamp = p.timestamp
	} else {
		r.Timestamp = nowMillis()
	}

	if cfg.development {
		r.Flags = r.Flags.Clear(FlagIsProduction)
	} else {
		r.Flags = r.Flags.Set(FlagIsProduction)
	}

	// Step 9: onError hook, then environment handler. Neither is allowed
	// to escape a panic through the factory (§4.8 "Failure").
	r = runOnError(cfg, r)
	r = runEnvironmentHandler(cfg, r)

	factoryMetrics.Counter(FactoryCreatedTotal).Inc()
	_ = ctx // span context carried for symmetry with future child spans

	// Step 10.
	emitErrorCreated(r)
	return r
}

// captureStack2 exists only so the stack-offset math reads the same for
// both the eager and lazy branches above; it just forwards to C6.
func captureStack2(offset, limit int) string {
	return captureStack(offset+1, limit)
}

func runOnError(cfg *derivedConfig, r *Record) *Record {
	if cfg.onError == nil {
		return r
	}
	replaced, ok := safeCallOnError(cfg.onError, r)
	if !ok {
		factoryMetrics.Counter(FactoryOnErrorRejections).Inc()
		return r
	}
	if replaced == nil {
		return r
	}
	// OQ1: the original pooled record is released immediately after the
	// replacement is adopted, before errorCreated is emitted.
	if r.Flags.Has(FlagIsPooled) && replaced != r {
		Release(r)
	}
	replaced.brand = theBrand
	return replaced
}

func safeCallOnError(fn OnErrorHandler, r *Record) (replacement *Record, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn(r), true
}

func runEnvironmentHandler(cfg *derivedConfig, r *Record) *Record {
	if !cfg.runtimeDetection || len(cfg.envHandlers) == 0 {
		return r
	}
	class := DetectRuntimeClass("")
	handler, ok := cfg.envHandlers[class]
	if !ok {
		return r
	}
	replaced, ok := safeCallEnvHandler(handler, r)
	if !ok || replaced == nil {
		return r
	}
	return replaced
}

func safeCallEnvHandler(fn EnvironmentHandler, r *Record) (replacement *Record, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn(r), true
}

// deepCloneContext copies ctx, including nested Context and []any values,
// and truncates it if its encoded size would exceed maxBytes. "Size" is
// approximated by key+value string length rather than a full JSON encode,
// so no round-trip through the serializer is paid on every error.
// performance.contextCapture.timeout is not consulted.
func deepCloneContext(ctx Context, maxBytes int) Context {
	if ctx == nil {
		return nil
	}
	var copyValue func(v any) any
	copyValue = func(v any) any {
		switch t := v.(type) {
		case Context:
			c := make(Context, len(t))
			for k, vv := range t {
				c[k] = copyValue(vv)
			}
			return c
		case []any:
			s := make([]any, len(t))
			for i, vv := range t {
				s[i] = copyValue(vv)
			}
			return s
		default:
			return v
		}
	}
	out := copyValue(ctx).(Context)
	if maxBytes <= 0 {
		return out
	}
	size := 0
	for k, v := range out {
		size += len(k) + approximateSize(v)
		if size > maxBytes {
			delete(out, k)
		}
	}
	return out
}

func approximateSize(v any) int {
	switch t := v.(type) {
	case string:
		return len(t)
	case Context:
		n := 0
		for k, vv := range t {
			n += len(k) + approximateSize(vv)
		}
		return n
	case []any:
		n := 0
		for _, vv := range t {
			n += approximateSize(vv)
		}
		return n
	default:
		return 8
	}
}
