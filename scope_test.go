package errz

import (
	"errors"
	"testing"
)

func TestScopeCreateErrorUsesFrozenConfig(t *testing.T) {
	ResetConfig()
	s := CreateScope(Config{StackTraceLimit: 3})

	Configure(Config{StackTraceLimit: 77})
	defer ResetConfig()

	r := s.CreateError("ScopedType", "scoped message")
	if r.Type != "ScopedType" {
		t.Errorf("Type = %q, want %q", r.Type, "ScopedType")
	}
	if s.derived.stackLimit != 3 {
		t.Errorf("scope's frozen stackLimit = %d, want 3 (global Configure must not leak in)", s.derived.stackLimit)
	}
}

func TestScopeWrapAttachesCause(t *testing.T) {
	s := CreateScope(Config{})
	cause := errors.New("boom")
	r := s.Wrap(cause, "WrapType", "wrapped")
	if r.Type != "WrapType" {
		t.Errorf("Type = %q, want %q", r.Type, "WrapType")
	}
	if r.Cause == nil {
		t.Fatal("expected a non-nil Cause after Wrap")
	}
}
