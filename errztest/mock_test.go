package errztest

import (
	"context"
	"testing"
	"time"
)

func TestMockOperationFuncReturnsConfiguredValue(t *testing.T) {
	m := NewMockOperation[int](t, "adder").WithReturn(7)
	got := m.Func()()
	if got != 7 {
		t.Errorf("Func()() = %d, want 7", got)
	}
	AssertCalled(t, m, 1)
}

func TestMockOperationAsyncFuncReturnsConfiguredValue(t *testing.T) {
	m := NewMockOperation[string](t, "greeter").WithReturn("hi")
	got := m.AsyncFunc()(context.Background())
	if got != "hi" {
		t.Errorf("AsyncFunc()(ctx) = %q, want %q", got, "hi")
	}
}

func TestMockOperationWithPanicPanics(t *testing.T) {
	m := NewMockOperation[int](t, "boom").WithPanic("mock exploded")
	defer func() {
		r := recover()
		if r != "mock exploded" {
			t.Errorf("recovered = %v, want %q", r, "mock exploded")
		}
	}()
	m.Func()()
}

func TestMockOperationWithDelay(t *testing.T) {
	m := NewMockOperation[int](t, "slow").WithDelay(15 * time.Millisecond).WithReturn(1)
	start := time.Now()
	m.Func()()
	if time.Since(start) < 15*time.Millisecond {
		t.Error("expected the configured delay to elapse before returning")
	}
}

func TestMockOperationCallHistoryAndReset(t *testing.T) {
	m := NewMockOperation[int](t, "counter")
	m.Func()()
	m.Func()()
	m.Func()()
	AssertCalled(t, m, 3)
	if len(m.CallHistory()) != 3 {
		t.Errorf("len(CallHistory()) = %d, want 3", len(m.CallHistory()))
	}

	m.Reset()
	AssertNotCalled(t, m)
	if len(m.CallHistory()) != 0 {
		t.Error("expected Reset to clear call history")
	}
}

func TestMockOperationWithHistorySizeBound(t *testing.T) {
	m := NewMockOperation[int](t, "bounded").WithHistorySize(2)
	m.Func()()
	m.Func()()
	m.Func()()
	if len(m.CallHistory()) != 2 {
		t.Errorf("len(CallHistory()) = %d, want 2 (bounded)", len(m.CallHistory()))
	}
}

func TestAssertCalledBetween(t *testing.T) {
	m := NewMockOperation[int](t, "ranged")
	m.Func()()
	m.Func()()
	AssertCalledBetween(t, m, 1, 3)
}
