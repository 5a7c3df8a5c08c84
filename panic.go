package errz

import (
	"fmt"
	"strings"
)

// panicError wraps a recovered panic value with its sanitized message, the
// shape every TrySync/TryAsync boundary converts a Go panic into before
// handing it to Wrap. The resulting Record always has type "Error" and
// carries the panicError as its Cause: the panic value is not classified
// by FromThrown, and the original value is not kept on the Record.
type panicError struct {
	processorName string
	sanitized     string
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic in processor %q: %s", p.processorName, p.sanitized)
}

// recoverFromPanic must be called directly via `defer recoverFromPanic(&rec, name)`
// at the top of any function that executes caller-supplied code under
// TrySync/TryAsync. If a panic occurred, *rec is set to a Record built from
// a panicError; otherwise it is left untouched.
func recoverFromPanic(rec **Record, name string) {
	p := recover()
	if p == nil {
		return
	}
	pe := &panicError{processorName: name, sanitized: sanitizePanicMessage(p)}
	r := Wrap(pe, TypeGenericError, pe.Error())
	emitErrorRecovered(r)
	*rec = r
}

// sanitizePanicMessage strips anything from a recovered panic value that
// could leak host details into an error message: raw pointers, absolute
// file paths, stack traces, and overlong payloads.
func sanitizePanicMessage(p any) string {
	if p == nil {
		return "unknown panic (nil value)"
	}

	var msg string
	switch v := p.(type) {
	case string:
		msg = v
	case error:
		msg = v.Error()
	case fmt.Stringer:
		msg = v.String()
	default:
		msg = fmt.Sprintf("%v", v)
	}

	if strings.Contains(msg, "goroutine ") || strings.Contains(msg, "runtime.") {
		return "panic occurred (stack trace sanitized)"
	}
	if strings.Contains(msg, "/") && strings.Contains(msg, ".go:") {
		return "panic occurred (file path sanitized)"
	}
	if strings.Contains(msg, `\`) && strings.Contains(msg, ".go:") {
		return "panic occurred (file path sanitized)"
	}
	if len(msg) > 200 {
		return "panic occurred (message truncated for security)"
	}
	if idx := strings.Index(msg, "0x"); idx != -1 {
		return "panic occurred: " + msg[:idx] + "0x***"
	}
	return "panic occurred: " + msg
}
