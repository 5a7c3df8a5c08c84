package errz

import (
	"sync"
	"sync/atomic"
	"time"
)

// EnvironmentHandler runs after a Record is created, keyed by the
// detected RuntimeClass (§3.1 "environmentHandlers").
type EnvironmentHandler func(r *Record) *Record

// OnErrorHandler runs after every createError call that does not take the
// minimal-mode path. If it returns a non-nil *Record, that record replaces
// the one the factory built (§4.8 step 9).
type OnErrorHandler func(r *Record) *Record

// Serializer turns a Record into a plain map for transport, overriding
// the default implementation in serialize.go.
type Serializer func(r *Record) (map[string]any, error)

// SourceLocationConfig controls how C6 extracts and formats one frame.
type SourceLocationConfig struct {
	StackOffset     int
	IncludeFullPath bool
	Formatter       SourceFormatter
}

// ContextCaptureConfig bounds the cost of capturing Context (§3.1).
type ContextCaptureConfig struct {
	MaxContextSize int // bytes; 0 = unbounded
	DeepClone      bool
	Timeout        time.Duration
}

// MemoryConfig holds the history-retention and reference-strategy
// settings.
//
// Both fields are stored and deep-merged like any other setting, but
// nothing in errz reads them: no error history is kept, so
// MaxErrorHistory bounds nothing, and UseWeakRefs does not change how
// Context values are held.
type MemoryConfig struct {
	MaxErrorHistory int
	UseWeakRefs     bool
}

// ErrorCreationConfig toggles the factory's optimization paths (§4.8).
type ErrorCreationConfig struct {
	CacheConstructors bool
	LazyStackTrace    bool
	ObjectPooling     bool
	PoolSize          int
}

// PerformanceConfig groups the three "performance.*" option families.
type PerformanceConfig struct {
	ErrorCreation  ErrorCreationConfig
	ContextCapture ContextCaptureConfig
	Memory         MemoryConfig
}

// Config is the full, effective configuration record (§3.1 table).
type Config struct {
	CaptureStackTrace   bool
	StackTraceLimit     int
	IncludeSource       bool
	MinimalErrors       bool
	SkipTimestamp       bool
	SkipContext         bool
	SourceLocation      SourceLocationConfig
	DefaultErrorType    string
	DevelopmentMode     bool
	Serializer          Serializer
	OnError             OnErrorHandler
	RuntimeDetection    bool
	EnvironmentHandlers map[RuntimeClass]EnvironmentHandler
	Performance         PerformanceConfig
}

// Clone returns a deep-enough copy of c: the EnvironmentHandlers map is
// copied so mutating one Config's route table never affects another's.
func (c Config) Clone() Config {
	out := c
	if c.EnvironmentHandlers != nil {
		out.EnvironmentHandlers = make(map[RuntimeClass]EnvironmentHandler, len(c.EnvironmentHandlers))
		for k, v := range c.EnvironmentHandlers {
			out.EnvironmentHandlers[k] = v
		}
	}
	return out
}

// defaultConfig is the factory-start configuration: stacks and source
// captured eagerly, no pooling, no minimal mode.
func defaultConfig() Config {
	return Config{
		CaptureStackTrace: true,
		StackTraceLimit:   32,
		IncludeSource:     true,
		DefaultErrorType:  TypeGenericError,
		SourceLocation: SourceLocationConfig{
			StackOffset: 0,
			Formatter:   DefaultSourceFormatter,
		},
		Performance: PerformanceConfig{
			ErrorCreation: ErrorCreationConfig{
				CacheConstructors: true,
				PoolSize:          0,
			},
			ContextCapture: ContextCaptureConfig{
				MaxContextSize: 64 * 1024,
				Timeout:        50 * time.Millisecond,
			},
			Memory: MemoryConfig{
				MaxErrorHistory: 100,
			},
		},
	}
}

// configState holds the process-wide singleton: the effective Config, a
// monotonic version counter, and a version-keyed derived-config cache
// (§4.7 "getCachedConfig"). All mutation happens through Configure /
// ResetConfig. Every cached read takes derivedMu; the derived view is
// only recomputed when the version has changed.
type configState struct {
	mu        sync.RWMutex
	current   Config
	version   int64
	listeners []func(Config)

	derivedMu      sync.Mutex
	derivedVersion int64
	derived        *derivedConfig
}

// derivedConfig is the denormalized, hot-path read view (§4.7
// "getCachedConfig"): everything createError needs without touching the
// full Config's maps/funcs on every call.
type derivedConfig struct {
	captureStack     bool
	stackLimit       int
	includeSource    bool
	minimal          bool
	skipTimestamp    bool
	skipContext      bool
	lazyStack        bool
	pooling          bool
	poolSize         int
	deepCloneContext bool
	maxContextSize   int
	contextTimeout   time.Duration
	defaultType      string
	sourceOffset     int
	sourceFullPath   bool
	sourceFormatter  SourceFormatter
	onError          OnErrorHandler
	envHandlers      map[RuntimeClass]EnvironmentHandler
	runtimeDetection bool
	serializer       Serializer
	development      bool
}

func deriveConfig(c Config) *derivedConfig {
	return &derivedConfig{
		captureStack:     c.CaptureStackTrace,
		stackLimit:       c.StackTraceLimit,
		includeSource:    c.IncludeSource,
		minimal:          c.MinimalErrors,
		skipTimestamp:    c.SkipTimestamp,
		skipContext:      c.SkipContext,
		lazyStack:        c.Performance.ErrorCreation.LazyStackTrace,
		pooling:          c.Performance.ErrorCreation.ObjectPooling,
		poolSize:         c.Performance.ErrorCreation.PoolSize,
		deepCloneContext: c.Performance.ContextCapture.DeepClone,
		maxContextSize:   c.Performance.ContextCapture.MaxContextSize,
		contextTimeout:   c.Performance.ContextCapture.Timeout,
		defaultType:      c.DefaultErrorType,
		sourceOffset:     c.SourceLocation.StackOffset,
		sourceFullPath:   c.SourceLocation.IncludeFullPath,
		sourceFormatter:  c.SourceLocation.Formatter,
		onError:          c.OnError,
		envHandlers:      c.EnvironmentHandlers,
		runtimeDetection: c.RuntimeDetection,
		serializer:       c.Serializer,
		development:      c.DevelopmentMode,
	}
}

var global = &configState{current: defaultConfig(), version: 1}

// GetConfig returns the current effective configuration.
func GetConfig() Config {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.current.Clone()
}

// GetConfigVersion returns the monotonically increasing version counter,
// incremented by every successful Configure/ResetConfig call (P7).
func GetConfigVersion() int64 {
	return atomic.LoadInt64(&global.version)
}

// getCachedConfig returns the derived, hot-path view for the current
// version, recomputing it only when the version has advanced.
func (s *configState) getCachedConfig() *derivedConfig {
	v := atomic.LoadInt64(&s.version)

	s.derivedMu.Lock()
	defer s.derivedMu.Unlock()
	if s.derived != nil && s.derivedVersion == v {
		return s.derived
	}
	s.mu.RLock()
	cfg := s.current
	s.mu.RUnlock()
	s.derived = deriveConfig(cfg)
	s.derivedVersion = v
	return s.derived
}

// GetCachedConfig exposes the derived view for callers outside the
// factory (e.g. middleware that wants to check DevelopmentMode cheaply).
func GetCachedConfig() *derivedConfig {
	return global.getCachedConfig()
}

// mergeConfig deep-merges overlay onto base: every non-zero/non-nil field
// on overlay wins, nested structs merge field by field, and the
// EnvironmentHandlers map is merged key by key rather than replaced
// wholesale (so a scoped override of one runtime's handler doesn't drop
// the others).
func mergeConfig(base, overlay Config) Config {
	out := base.Clone()

	if overlay.CaptureStackTrace {
		out.CaptureStackTrace = true
	}
	if overlay.StackTraceLimit != 0 {
		out.StackTraceLimit = overlay.StackTraceLimit
	}
	if overlay.IncludeSource {
		out.IncludeSource = true
	}
	if overlay.MinimalErrors {
		out.MinimalErrors = true
	}
	if overlay.SkipTimestamp {
		out.SkipTimestamp = true
	}
	if overlay.SkipContext {
		out.SkipContext = true
	}
	if overlay.SourceLocation.StackOffset != 0 {
		out.SourceLocation.StackOffset = overlay.SourceLocation.StackOffset
	}
	if overlay.SourceLocation.IncludeFullPath {
		out.SourceLocation.IncludeFullPath = true
	}
	if overlay.SourceLocation.Formatter != nil {
		out.SourceLocation.Formatter = overlay.SourceLocation.Formatter
	}
	if overlay.DefaultErrorType != "" {
		out.DefaultErrorType = overlay.DefaultErrorType
	}
	if overlay.DevelopmentMode {
		out.DevelopmentMode = true
	}
	if overlay.Serializer != nil {
		out.Serializer = overlay.Serializer
	}
	if overlay.OnError != nil {
		out.OnError = overlay.OnError
	}
	if overlay.RuntimeDetection {
		out.RuntimeDetection = true
	}
	for k, v := range overlay.EnvironmentHandlers {
		if out.EnvironmentHandlers == nil {
			out.EnvironmentHandlers = make(map[RuntimeClass]EnvironmentHandler)
		}
		out.EnvironmentHandlers[k] = v
	}

	pe := overlay.Performance.ErrorCreation
	if pe.CacheConstructors {
		out.Performance.ErrorCreation.CacheConstructors = true
	}
	if pe.LazyStackTrace {
		out.Performance.ErrorCreation.LazyStackTrace = true
	}
	if pe.ObjectPooling {
		out.Performance.ErrorCreation.ObjectPooling = true
	}
	if pe.PoolSize != 0 {
		out.Performance.ErrorCreation.PoolSize = pe.PoolSize
	}

	pc := overlay.Performance.ContextCapture
	if pc.MaxContextSize != 0 {
		out.Performance.ContextCapture.MaxContextSize = pc.MaxContextSize
	}
	if pc.DeepClone {
		out.Performance.ContextCapture.DeepClone = true
	}
	if pc.Timeout != 0 {
		out.Performance.ContextCapture.Timeout = pc.Timeout
	}

	pm := overlay.Performance.Memory
	if pm.MaxErrorHistory != 0 {
		out.Performance.Memory.MaxErrorHistory = pm.MaxErrorHistory
	}
	if pm.UseWeakRefs {
		out.Performance.Memory.UseWeakRefs = true
	}

	return out
}

// Configure deep-merges overlay onto the current global configuration,
// increments the version counter, invalidates the derived-config cache
// (implicitly, via the version bump), and notifies listeners (§4.7).
//
// Configure never resets a field the overlay leaves at its zero value:
// a bool field set to false, a zero number or an empty string in overlay
// leaves the current value in place. ConfigurePreset goes through the same
// merge, so it does not replace the configuration wholesale either.
func Configure(overlay Config) Config {
	global.mu.Lock()
	merged := mergeConfig(global.current, overlay)
	global.current = merged
	global.mu.Unlock()

	atomic.AddInt64(&global.version, 1)
	notifyListeners(merged)
	return merged
}

// ConfigurePreset resolves name through the preset table (§4.7) and
// deep-merges the result onto the current configuration with Configure's
// rules, so fields a preset turns off (false or zero) keep whatever value
// the current configuration has. Returns UnknownPreset if name is not
// registered.
func ConfigurePreset(name string) (Config, *Record) {
	presetFn, ok := presets[name]
	if !ok {
		return Config{}, newInternalError(TypeUnknownPreset, "unknown configuration preset: "+name, nil)
	}
	return Configure(presetFn()), nil
}

// ResetConfig restores the factory-default configuration and bumps the
// version counter, same as any other successful Configure call.
func ResetConfig() Config {
	global.mu.Lock()
	global.current = defaultConfig()
	global.mu.Unlock()
	atomic.AddInt64(&global.version, 1)
	cfg := GetConfig()
	notifyListeners(cfg)
	return cfg
}

// OnConfigChange registers a listener invoked synchronously after every
// successful Configure/ConfigurePreset/ResetConfig call. It returns a
// disposer, matching the event bus's registration convention (events.go).
func OnConfigChange(fn func(Config)) (dispose func()) {
	global.mu.Lock()
	defer global.mu.Unlock()
	idx := len(global.listeners)
	global.listeners = append(global.listeners, fn)
	return func() {
		global.mu.Lock()
		defer global.mu.Unlock()
		if idx < len(global.listeners) {
			global.listeners[idx] = nil
		}
	}
}

func notifyListeners(cfg Config) {
	global.mu.RLock()
	listeners := make([]func(Config), len(global.listeners))
	copy(listeners, global.listeners)
	global.mu.RUnlock()
	for _, l := range listeners {
		if l != nil {
			l(cfg)
		}
	}
}

// CreateEnvConfig selects one of three configs based on a caller-supplied
// environment name ("development", "production", "test"), matching
// §4.7's createEnvConfig. This is a pure selection function — it does not
// probe the host to decide which branch to take, consistent with the
// Non-goal excluding environment auto-detection.
func CreateEnvConfig(env string, development, production, test Config) Config {
	switch env {
	case "development":
		return development
	case "test":
		return test
	default:
		return production
	}
}

func newInternalError(typ, message string, cause any) *Record {
	return &Record{
		brand:     theBrand,
		Type:      typ,
		Message:   message,
		Source:    "disabled",
		Timestamp: nowMillis(),
		Cause:     cause,
	}
}
