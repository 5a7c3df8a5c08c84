package errz

import (
	"encoding/json"
	"net/url"
	"runtime"
	"strconv"
	"strings"
)

// FromThrown classifies cause by platform-exception subtype and delegates
// to Wrap (§4.9). Go has no throw/catch of typed exceptions, so the
// classification maps the nearest stdlib/runtime equivalents:
//
//   - runtime.Error whose message names a nil dereference or bad type
//     assertion classifies as ReferenceError/TypeError respectively;
//     index/slice bounds violations classify as RangeError.
//   - *strconv.NumError and *json syntax errors classify as SyntaxError.
//   - *url.Error classifies as URIError.
//   - a plain string classifies as StringError.
//   - any other error classifies as GenericError ("Error").
//   - anything else classifies as UnknownError.
//
// Classification is O(1): each case is a type switch or a single
// substring check, never a scan proportional to input size.
func FromThrown(cause any, ctx Context) *Record {
	if r, ok := cause.(*Record); ok && IsError(r) {
		return r
	}

	typ := classify(cause)
	var opts []ErrorOption
	if ctx != nil {
		opts = append(opts, WithContext(ctx))
	}
	return Wrap(cause, typ, "", opts...)
}

func classify(cause any) string {
	switch v := cause.(type) {
	case nil:
		return TypeUnknownError
	case runtime.Error:
		return classifyRuntimeError(v.Error())
	case *strconv.NumError:
		return TypeSyntaxError
	case *json.SyntaxError, *json.UnmarshalTypeError:
		return TypeSyntaxError
	case *url.Error:
		return TypeURIError
	case string:
		return TypeStringError
	case error:
		return TypeGenericError
	default:
		return TypeUnknownError
	}
}

func classifyRuntimeError(message string) string {
	switch {
	case strings.Contains(message, "nil pointer dereference"),
		strings.Contains(message, "invalid memory address"):
		return TypeReferenceError
	case strings.Contains(message, "interface conversion"):
		return TypeTypeError
	case strings.Contains(message, "index out of range"),
		strings.Contains(message, "slice bounds out of range"):
		return TypeRangeError
	default:
		return TypeGenericError
	}
}
