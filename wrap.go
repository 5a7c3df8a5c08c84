package errz

import "fmt"

// causer is satisfied by anything exposing a message the way a thrown
// exception would (Go's closest analogue to an Error-like thrown value).
type causer interface {
	CauseMessage() string
}

// Wrap builds a new Record of typ around cause, extracting message
// according to §4.9: cause's own message if it implements causer or the
// error interface, cause itself if it is already a string, otherwise a
// generic fallback. cause is preserved by reference as Record.Cause, and
// emits errorWrapped.
func Wrap(cause any, typ string, message string, opts ...ErrorOption) *Record {
	return wrapWith(GetCachedConfig(), cause, typ, message, opts...)
}

func wrapWith(cfg *derivedConfig, cause any, typ string, message string, opts ...ErrorOption) *Record {
	if message == "" {
		message = extractMessage(cause)
	}
	opts = append(opts, WithCause(cause))
	r := createErrorWith(cfg, typ, message, opts...)
	emitErrorWrapped(r)
	return r
}

func extractMessage(cause any) string {
	switch v := cause.(type) {
	case nil:
		return "unknown error"
	case causer:
		return v.CauseMessage()
	case error:
		return v.Error()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
