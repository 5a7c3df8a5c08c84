package errz

import "testing"

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	ResetConfig()
	r := CreateError("ValidationError", "bad input", WithContext(Context{"field": "email"}))
	m := SerializeError(r)

	if m["type"] != "ValidationError" || m["message"] != "bad input" {
		t.Fatalf("unexpected serialized map: %+v", m)
	}

	back := DeserializeError(m)
	if back == nil {
		t.Fatal("expected a non-nil record from DeserializeError")
	}
	if back.Type != r.Type || back.Message != r.Message || back.Source != r.Source {
		t.Errorf("round trip mismatch: got %+v, want type/message/source matching %+v", back, r)
	}
	if !IsError(back) {
		t.Error("expected DeserializeError to reinstate the brand")
	}
}

func TestDeserializeErrorRejectsMalformedInput(t *testing.T) {
	if DeserializeError(map[string]any{"message": "no type field"}) != nil {
		t.Error("expected nil when type is missing")
	}
	if DeserializeError(map[string]any{"type": "X"}) != nil {
		t.Error("expected nil when required fields are missing")
	}
}

func TestSerializeNestedCause(t *testing.T) {
	inner := CreateError("InnerError", "inner failure")
	outer := Wrap(inner, "OuterError", "outer failure")
	m := SerializeError(outer)
	cause, ok := m["cause"].(map[string]any)
	if !ok {
		t.Fatalf("expected cause to serialize as a nested map, got %T", m["cause"])
	}
	if cause["type"] != "InnerError" {
		t.Errorf("nested cause type = %v, want %q", cause["type"], "InnerError")
	}
}

func TestCloneErrorIsStructurallyIndependent(t *testing.T) {
	orig := CreateError("X", "original", WithContext(Context{"k": "v"}))
	clone := CloneError(orig)
	if clone == nil {
		t.Fatal("expected a non-nil clone")
	}
	if !AreErrorsEqual(orig, clone) {
		t.Fatal("expected the clone to be equal to the original")
	}

	clone.GetContext()["k"] = "mutated"
	if orig.GetContext()["k"] == "mutated" {
		t.Error("expected CloneError to produce an independent context map")
	}
}

func TestCloneErrorAppliesModifications(t *testing.T) {
	orig := CreateError("X", "original")
	clone := CloneError(orig, func(r *Record) { r.Message = "modified" })
	if clone.Message != "modified" {
		t.Errorf("Message = %q, want %q", clone.Message, "modified")
	}
}

func TestAreErrorsEqualAndDiff(t *testing.T) {
	a := CreateError("X", "same", WithSource("fixed.go:1:1"), WithTimestamp(1))
	b := CreateError("X", "same", WithSource("fixed.go:1:1"), WithTimestamp(1))
	if !AreErrorsEqual(a, b) {
		t.Error("expected two independently created records with identical fields to compare equal")
	}

	c := CreateError("Y", "different", WithSource("fixed.go:1:1"), WithTimestamp(1))
	if AreErrorsEqual(a, c) {
		t.Error("expected records with different types to compare unequal")
	}
	diff := DiffErrors(a, c)
	if diff["type"] != [2]any{"X", "Y"} {
		t.Errorf("diff[type] = %v, want [X Y]", diff["type"])
	}
}

func TestAreErrorsEqualIgnoresTimestampByDefault(t *testing.T) {
	a := CreateError("X", "same", WithSource("fixed.go:1:1"), WithTimestamp(1))
	b := CreateError("X", "same", WithSource("fixed.go:1:1"), WithTimestamp(2))
	if !AreErrorsEqual(a, b) {
		t.Error("expected records differing only by timestamp to compare equal by default")
	}
	if AreErrorsEqual(a, b, "timestamp") {
		t.Error("expected records differing by timestamp to compare unequal when \"timestamp\" is opted in")
	}
}

func TestGetErrorFingerprintStableAndDistinct(t *testing.T) {
	a := CreateError("X", "same message", WithSource("fixed.go:1:1"))
	b := CreateError("X", "same message", WithSource("fixed.go:1:1"))
	if GetErrorFingerprint(a) != GetErrorFingerprint(b) {
		t.Error("expected identical type/message/source to fingerprint the same")
	}
	c := CreateError("X", "different message", WithSource("fixed.go:1:1"))
	if GetErrorFingerprint(a) == GetErrorFingerprint(c) {
		t.Error("expected different messages to fingerprint differently")
	}
	if GetErrorFingerprint(nil) != "" {
		t.Error("expected GetErrorFingerprint(nil) to return an empty string")
	}
}
