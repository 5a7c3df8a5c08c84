package errz

import "testing"

func TestIsErrorRejectsForeignValues(t *testing.T) {
	cases := []struct {
		name string
		v    any
	}{
		{"nil", nil},
		{"string", "not a record"},
		{"unbranded struct", struct{}{}},
		{"nil record pointer", (*Record)(nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if IsError(tc.v) {
				t.Errorf("expected IsError(%v) to be false", tc.v)
			}
		})
	}
}

func TestIsErrorAcceptsBrandedRecord(t *testing.T) {
	r := CreateError("TestError", "boom")
	if !IsError(r) {
		t.Fatal("expected a freshly created record to satisfy IsError")
	}
}

func TestRecordErrorFormatting(t *testing.T) {
	r := &Record{brand: theBrand, Type: "X", Message: "boom", Source: "disabled"}
	if got, want := r.Error(), "X: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noMsg := &Record{brand: theBrand, Type: "X", Source: "disabled"}
	if got, want := noMsg.Error(), "X"; got != want {
		t.Errorf("Error() with empty message = %q, want %q", got, want)
	}

	var nilRecord *Record
	if got, want := nilRecord.Error(), "<nil>"; got != want {
		t.Errorf("Error() on nil = %q, want %q", got, want)
	}
}

func TestRecordUnwrap(t *testing.T) {
	cause := &testError{"inner"}
	r := Wrap(cause, "Outer", "")
	if r.Unwrap() != cause {
		t.Error("expected Unwrap to return the wrapped cause")
	}

	r2 := CreateError("NoCause", "boom")
	if r2.Unwrap() != nil {
		t.Error("expected Unwrap to return nil when Cause is not an error")
	}
}

func TestRecordIsTimeoutIsCanceled(t *testing.T) {
	to := CreateError(TypeTimeoutError, "timed out")
	if !to.IsTimeout() {
		t.Error("expected IsTimeout to be true")
	}
	if to.IsCanceled() {
		t.Error("expected IsCanceled to be false")
	}

	ab := CreateError(TypeAborted, "aborted")
	if !ab.IsCanceled() {
		t.Error("expected IsCanceled to be true")
	}
}

func TestContextClone(t *testing.T) {
	c := Context{"a": 1}
	clone := c.Clone()
	clone["a"] = 2
	if c["a"] != 1 {
		t.Error("expected original context to be unaffected by clone mutation")
	}

	var nilCtx Context
	if nilCtx.Clone() != nil {
		t.Error("expected Clone of nil Context to be nil")
	}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
