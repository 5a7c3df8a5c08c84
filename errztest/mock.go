// Package errztest provides test utilities for errz-based code: a
// configurable mock operation compatible with TryAsync's
// func(context.Context) T shape, plus call-count assertion helpers,
// adapted from the upstream pipz testing helpers.
package errztest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockCall records one invocation of a MockOperation.
type MockCall struct {
	Timestamp time.Time
}

// MockOperation provides a configurable stand-in for the function passed
// to errz.TrySync/errz.TryAsync. It tracks calls and can be configured to
// return a fixed value, delay, or panic.
type MockOperation[T any] struct {
	t           *testing.T
	name        string
	callCount   int64
	returnVal   T
	panicMsg    string
	delay       time.Duration
	mu          sync.RWMutex
	callHistory []MockCall
	maxHistory  int
}

// NewMockOperation creates a mock operation named name, tracking up to 100
// calls by default.
func NewMockOperation[T any](t *testing.T, name string) *MockOperation[T] {
	return &MockOperation[T]{t: t, name: name, maxHistory: 100}
}

// WithReturn configures the value every subsequent call returns.
func (m *MockOperation[T]) WithReturn(val T) *MockOperation[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnVal = val
	return m
}

// WithDelay configures a fixed delay before returning.
func (m *MockOperation[T]) WithDelay(d time.Duration) *MockOperation[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithPanic configures the mock to panic with msg on every call, useful
// for exercising TrySync/TryAsync's panic-recovery path.
func (m *MockOperation[T]) WithPanic(msg string) *MockOperation[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMsg = msg
	return m
}

// WithHistorySize bounds how many calls are retained; 0 disables history.
func (m *MockOperation[T]) WithHistorySize(size int) *MockOperation[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxHistory = size
	if size == 0 {
		m.callHistory = nil
	} else if len(m.callHistory) > size {
		m.callHistory = m.callHistory[len(m.callHistory)-size:]
	}
	return m
}

// Func returns the callable to pass to errz.TrySync.
func (m *MockOperation[T]) Func() func() T {
	return func() T { return m.invoke() }
}

// AsyncFunc returns the callable to pass to errz.TryAsync. The supplied
// context is ignored by the mock itself (respecting cancellation is the
// caller's job under the real contract), matching the root package's
// CreateError-adjacent helpers which never depend on a live context.
func (m *MockOperation[T]) AsyncFunc() func(context.Context) T {
	return func(context.Context) T { return m.invoke() }
}

func (m *MockOperation[T]) invoke() T {
	atomic.AddInt64(&m.callCount, 1)

	m.mu.Lock()
	if m.maxHistory > 0 {
		m.callHistory = append(m.callHistory, MockCall{Timestamp: time.Now()})
		if len(m.callHistory) > m.maxHistory {
			m.callHistory = m.callHistory[1:]
		}
	}
	delay := m.delay
	returnVal := m.returnVal
	panicMsg := m.panicMsg
	m.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return returnVal
}

// CallCount returns how many times the mock has been invoked.
func (m *MockOperation[T]) CallCount() int { return int(atomic.LoadInt64(&m.callCount)) }

// CallHistory returns a copy of recorded invocation timestamps.
func (m *MockOperation[T]) CallHistory() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]MockCall, len(m.callHistory))
	copy(history, m.callHistory)
	return history
}

// Reset clears call tracking.
func (m *MockOperation[T]) Reset() {
	atomic.StoreInt64(&m.callCount, 0)
	m.mu.Lock()
	m.callHistory = nil
	m.mu.Unlock()
}

// AssertCalled verifies the mock was invoked exactly n times.
func AssertCalled[T any](t *testing.T, mock *MockOperation[T], n int) {
	t.Helper()
	if got := mock.CallCount(); got != n {
		t.Errorf("expected mock operation %s to be called %d times, got %d", mock.name, n, got)
	}
}

// AssertNotCalled verifies the mock was never invoked.
func AssertNotCalled[T any](t *testing.T, mock *MockOperation[T]) {
	t.Helper()
	AssertCalled(t, mock, 0)
}

// AssertCalledBetween verifies the mock was invoked between min and max
// times, inclusive.
func AssertCalledBetween[T any](t *testing.T, mock *MockOperation[T], min, max int) {
	t.Helper()
	got := mock.CallCount()
	if got < min || got > max {
		t.Errorf("expected mock operation %s to be called between %d and %d times, got %d", mock.name, min, max, got)
	}
}
