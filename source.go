package errz

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// RuntimeClass is the detected host environment (§4.6).
type RuntimeClass string

const (
	RuntimeServer  RuntimeClass = "server"
	RuntimeClient  RuntimeClass = "client"
	RuntimeEdge    RuntimeClass = "edge"
	RuntimeUnknown RuntimeClass = "unknown"
)

// SourceFormatter renders one parsed stack frame into a string. The
// default is "file:line:column"; a custom formatter can be installed via
// Config.SourceLocation.Formatter.
type SourceFormatter func(file string, line, col int) string

// DefaultSourceFormatter implements "file:line:column". Column is always
// 0 on this platform (Go's runtime.Caller does not report a column), so
// it is included for wire-format compatibility only.
func DefaultSourceFormatter(file string, line, col int) string {
	return fmt.Sprintf("%s:%d:%d", file, line, col)
}

// captureSource walks the call stack and formats the frame at offset
// (0 = the caller of captureSource's direct caller). includeFullPath
// controls whether the absolute path is kept or trimmed to its base name.
func captureSource(offset int, includeFullPath bool, formatter SourceFormatter) string {
	if formatter == nil {
		formatter = DefaultSourceFormatter
	}
	// +2: runtime.Caller(0) is captureSource itself, 1 its direct caller.
	_, file, line, ok := runtime.Caller(offset + 2)
	if !ok {
		return "unknown"
	}
	if !includeFullPath {
		file = filepath.Base(file)
	}
	return formatter(file, line, 0)
}

// captureStack renders a multi-frame stack trace starting at offset,
// bounded by limit frames. Used when Config.CaptureStackTrace is set.
func captureStack(offset, limit int) string {
	if limit <= 0 {
		limit = 32
	}
	pcs := make([]uintptr, limit)
	// +2: skip runtime.Callers' own frame and captureStack's frame.
	n := runtime.Callers(offset+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

var (
	envCacheValue RuntimeClass
	envCacheValid bool
)

// DetectRuntimeClass classifies the current process into server, client,
// or edge. Go has no DOM/window global to branch on, so the detection
// seam here is a caller-supplied hint rather than feature sniffing — the
// spec's "environment/framework auto-setup" is explicitly out of scope
// (Non-goals), so errz exposes the classification primitive and lets a
// thin external adapter decide how to call it. The result is cached until
// InvalidateEnvironmentCache is called (relevant for long-lived server
// processes that move between detections, e.g. during graceful restarts).
func DetectRuntimeClass(hint RuntimeClass) RuntimeClass {
	if envCacheValid {
		return envCacheValue
	}
	class := hint
	if class == "" {
		class = RuntimeServer
	}
	envCacheValue = class
	envCacheValid = true
	return class
}

// InvalidateEnvironmentCache clears the cached runtime classification.
func InvalidateEnvironmentCache() {
	envCacheValid = false
	envCacheValue = ""
}
