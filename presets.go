package errz

import "time"

// Named preset identifiers (§4.7 "configurePreset"). Passed to
// ConfigurePreset, never constructed by callers as Config values directly.
const (
	PresetDevelopment      = "development"
	PresetProduction       = "production"
	PresetTest             = "test"
	PresetPerformance      = "performance"
	PresetMinimal          = "minimal"
	PresetServerProduction = "serverProduction"
	PresetClientProduction = "clientProduction"
	PresetEdge             = "edge"
	PresetNextjs           = "nextjs"
)

// presets maps a preset name to a frozen function returning a fresh Config
// value (never a shared pointer), matching §4.7's "each call returns an
// independent record" requirement.
var presets = map[string]func() Config{
	PresetDevelopment:      developmentPreset,
	PresetProduction:       productionPreset,
	PresetTest:             testPreset,
	PresetPerformance:      performancePreset,
	PresetMinimal:          minimalPreset,
	PresetServerProduction: serverProductionPreset,
	PresetClientProduction: clientProductionPreset,
	PresetEdge:             edgePreset,
	PresetNextjs:           nextjsPreset,
}

// developmentPreset favors diagnosability: full stacks, full paths,
// development-mode serialization.
func developmentPreset() Config {
	c := defaultConfig()
	c.CaptureStackTrace = true
	c.StackTraceLimit = 50
	c.IncludeSource = true
	c.SourceLocation.IncludeFullPath = true
	c.DevelopmentMode = true
	return c
}

// productionPreset trims stack depth and disables full paths, but keeps
// every field populated (unlike minimalPreset).
func productionPreset() Config {
	c := defaultConfig()
	c.CaptureStackTrace = true
	c.StackTraceLimit = 10
	c.IncludeSource = true
	c.SourceLocation.IncludeFullPath = false
	c.DevelopmentMode = false
	return c
}

// testPreset captures everything deterministically and disables pooling,
// so assertions in a test suite never observe a reused Record.
func testPreset() Config {
	c := defaultConfig()
	c.CaptureStackTrace = true
	c.IncludeSource = true
	c.Performance.ErrorCreation.ObjectPooling = false
	c.Performance.ErrorCreation.LazyStackTrace = false
	return c
}

// performancePreset trades diagnosability for throughput: lazy stacks,
// pooling, and a bounded context-capture budget.
func performancePreset() Config {
	c := defaultConfig()
	c.CaptureStackTrace = true
	c.Performance.ErrorCreation.LazyStackTrace = true
	c.Performance.ErrorCreation.ObjectPooling = true
	c.Performance.ErrorCreation.PoolSize = 1024
	c.Performance.ContextCapture.Timeout = 10 * time.Millisecond
	return c
}

// minimalPreset produces the smallest possible Record: no stack, no
// source, no timestamp, no context (§4.8's "minimal mode" fast path).
func minimalPreset() Config {
	c := defaultConfig()
	c.CaptureStackTrace = false
	c.IncludeSource = false
	c.MinimalErrors = true
	c.SkipTimestamp = true
	c.SkipContext = true
	return c
}

// serverProductionPreset is productionPreset with RuntimeDetection turned
// on, for hosts that route differently per RuntimeClass.
func serverProductionPreset() Config {
	c := productionPreset()
	c.RuntimeDetection = true
	return c
}

// clientProductionPreset mirrors serverProductionPreset but skips stack
// capture entirely — a client-side build typically ships without debug
// symbols, so a captured frame is rarely actionable.
func clientProductionPreset() Config {
	c := productionPreset()
	c.CaptureStackTrace = false
	c.RuntimeDetection = true
	return c
}

// edgePreset targets a constrained, short-lived execution environment:
// minimal capture plus a tight context-capture timeout.
func edgePreset() Config {
	c := minimalPreset()
	c.RuntimeDetection = true
	c.Performance.ContextCapture.Timeout = 5 * time.Millisecond
	return c
}

// nextjsPreset distinguishes server and client behavior through an
// EnvironmentHandlers route table rather than process detection (the
// Non-goal on framework auto-setup means errz never imports a web
// framework to decide this for itself — the caller wires the handler).
func nextjsPreset() Config {
	c := productionPreset()
	c.RuntimeDetection = true
	c.EnvironmentHandlers = map[RuntimeClass]EnvironmentHandler{
		RuntimeServer: func(r *Record) *Record { return r },
		RuntimeClient: func(r *Record) *Record {
			r.Flags = r.Flags.Set(FlagIsMinimal)
			return r
		},
	}
	return c
}
