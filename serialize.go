package errz

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// wireRecord is the transport shape of a Record: every user-visible field,
// brand omitted. This is what CloneError round-trips through msgpack to
// get a true structural copy, the same Encode/Decode idiom the teacher
// uses for contract payloads (encode.go), applied here to error values
// instead of pipeline data.
type wireRecord struct {
	Type      string
	Message   string
	Source    string
	Timestamp int64
	Flags     uint8
	Stack     string `msgpack:",omitempty"`
	Context   Context `msgpack:",omitempty"`
	Cause     string `msgpack:",omitempty"`
}

func toWire(r *Record) wireRecord {
	w := wireRecord{
		Type:      r.Type,
		Message:   r.Message,
		Source:    r.Source,
		Timestamp: r.Timestamp,
		Flags:     uint8(r.Flags),
	}
	if r.stack != nil {
		w.Stack = r.Stack()
	}
	if r.context != nil {
		w.Context = r.GetContext()
	}
	if r.Cause != nil {
		w.Cause = extractMessage(r.Cause)
	}
	return w
}

// SerializeError converts r into a plain mapping suitable for transport,
// with cause serialized recursively when it is itself a branded Record
// and stringified otherwise (§4.15). The brand is never included.
func SerializeError(r *Record) map[string]any {
	if r == nil {
		return nil
	}
	if cfg := GetCachedConfig(); cfg.serializer != nil {
		if m, err := cfg.serializer(r); err == nil {
			return m
		}
	}

	m := map[string]any{
		"type":      r.Type,
		"message":   r.Message,
		"source":    r.Source,
		"timestamp": r.Timestamp,
	}
	if r.stack != nil {
		m["stack"] = r.Stack()
	}
	if r.context != nil {
		m["context"] = r.GetContext()
	}
	if r.Cause != nil {
		if cause, ok := r.Cause.(*Record); ok && IsError(cause) {
			m["cause"] = SerializeError(cause)
		} else {
			m["cause"] = extractMessage(r.Cause)
		}
	}
	emitErrorSerialized(r)
	return m
}

// DeserializeError validates m and reinstates the brand, returning nil on
// malformed input rather than a partially populated Record (§4.15).
func DeserializeError(m map[string]any) *Record {
	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return nil
	}
	message, ok := m["message"].(string)
	if !ok {
		return nil
	}
	source, ok := m["source"].(string)
	if !ok {
		return nil
	}
	var timestamp int64
	switch t := m["timestamp"].(type) {
	case int64:
		timestamp = t
	case float64:
		timestamp = int64(t)
	case int:
		timestamp = int64(t)
	default:
		return nil
	}

	r := &Record{
		brand:     theBrand,
		Type:      typ,
		Message:   message,
		Source:    source,
		Timestamp: timestamp,
	}
	if stack, ok := m["stack"].(string); ok && stack != "" {
		r.stack = eagerField(stack)
		r.Flags = r.Flags.Set(FlagHasStack)
	}
	if ctx, ok := m["context"].(Context); ok {
		r.context = eagerField(ctx)
		r.Flags = r.Flags.Set(FlagHasContext)
	} else if ctx, ok := m["context"].(map[string]any); ok {
		r.context = eagerField(Context(ctx))
		r.Flags = r.Flags.Set(FlagHasContext)
	}
	if cause, ok := m["cause"].(map[string]any); ok {
		if nested := DeserializeError(cause); nested != nil {
			r.Cause = nested
			r.Flags = r.Flags.Set(FlagHasCause)
		}
	} else if cause, ok := m["cause"]; ok && cause != nil {
		r.Cause = cause
		r.Flags = r.Flags.Set(FlagHasCause)
	}
	return r
}

// CloneError returns a structural copy of e with the brand preserved,
// optionally applying modifications after the copy completes. The copy
// itself round-trips e through msgpack so the clone never shares backing
// memory with e's context map.
func CloneError(e *Record, modifications ...func(*Record)) *Record {
	if e == nil {
		return nil
	}
	data, err := msgpack.Marshal(toWire(e))
	if err != nil {
		return nil
	}
	var w wireRecord
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil
	}

	clone := &Record{
		brand:     theBrand,
		Type:      w.Type,
		Message:   w.Message,
		Source:    w.Source,
		Timestamp: w.Timestamp,
		Flags:     Flags(w.Flags),
	}
	if w.Stack != "" {
		clone.stack = eagerField(w.Stack)
	}
	if w.Context != nil {
		clone.context = eagerField(w.Context)
	}
	clone.Cause = e.Cause

	for _, mod := range modifications {
		mod(clone)
	}
	clone.brand = theBrand
	return clone
}

// AreErrorsEqual compares the user-visible fields of a and b. Timestamp and
// stack are ignored by default, since two otherwise-identical records
// created at different moments (or with stack capture toggled differently)
// should still compare equal; pass "timestamp" and/or "stack" in fields to
// opt either back into the comparison. The brand is not compared. A pooled
// record that has since been released has its fields cleared, so it no
// longer compares equal to the error it represented (two released records
// do compare equal to each other).
func AreErrorsEqual(a, b *Record, fields ...string) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Message != b.Message || a.Source != b.Source {
		return false
	}
	for _, f := range fields {
		switch f {
		case "timestamp":
			if a.Timestamp != b.Timestamp {
				return false
			}
		case "stack":
			if a.Stack() != b.Stack() {
				return false
			}
		}
	}
	return contextsEqual(a.GetContext(), b.GetContext())
}

func contextsEqual(a, b Context) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", v) != fmt.Sprintf("%v", bv) {
			return false
		}
	}
	return true
}

// DiffErrors returns the fields that differ between a and b, keyed by
// field name, each value a [before, after] pair.
func DiffErrors(a, b *Record) map[string][2]any {
	diff := make(map[string][2]any)
	if a == nil || b == nil {
		if a != b {
			diff["presence"] = [2]any{a != nil, b != nil}
		}
		return diff
	}
	if a.Type != b.Type {
		diff["type"] = [2]any{a.Type, b.Type}
	}
	if a.Message != b.Message {
		diff["message"] = [2]any{a.Message, b.Message}
	}
	if a.Source != b.Source {
		diff["source"] = [2]any{a.Source, b.Source}
	}
	if a.Timestamp != b.Timestamp {
		diff["timestamp"] = [2]any{a.Timestamp, b.Timestamp}
	}
	if !contextsEqual(a.GetContext(), b.GetContext()) {
		diff["context"] = [2]any{a.GetContext(), b.GetContext()}
	}
	return diff
}

// GetErrorFingerprint returns a stable identifier for r's {type, message,
// source} triple, useful for deduplicating identical errors across
// requests without comparing full records.
func GetErrorFingerprint(r *Record) string {
	if r == nil {
		return ""
	}
	h := sha256.New()
	h.Write([]byte(r.Type))
	h.Write([]byte{0})
	h.Write([]byte(r.Message))
	h.Write([]byte{0})
	h.Write([]byte(r.Source))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
