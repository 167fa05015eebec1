package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestCircuitBreaker_Transitions(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxReq: 1})

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	isFailure := func(err error) bool { return errors.Is(err, errTransient) }
	fail := func() error { return errTransient }

	if err := b.Do(fail, isFailure); !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	_ = b.Do(fail, isFailure)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	err := b.Do(func() error { called = true; return nil }, isFailure)
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected rejected call while open, err=%v called=%v", err, called)
	}

	now = now.Add(6 * time.Second)
	if err := b.Do(func() error { return nil }, isFailure); err != nil {
		t.Fatalf("expected half-open trial to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful trial, got %s", state)
	}
}

func TestCircuitBreaker_IgnoresNonTransientErrors(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	conflict := errors.New("conflict")

	for i := 0; i < 3; i++ {
		_ = b.Do(func() error { return conflict }, func(err error) bool { return errors.Is(err, errTransient) })
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed for business errors, got %s", state)
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	b := NewCircuitBreaker(CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_ = b.Do(func() error { return errTransient }, nil)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected disabled breaker to allow, got %v", err)
	}
}

func TestCircuitBreaker_ReportsStateChanges(t *testing.T) {
	var changes []string
	b := NewCircuitBreaker(CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Second,
		HalfOpenMaxReq:   1,
		OnStateChange: func(from, to CircuitState) {
			changes = append(changes, string(from)+">"+string(to))
		},
	})
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	_ = b.Do(func() error { return errTransient }, nil)
	now = now.Add(2 * time.Second)
	_ = b.Do(func() error { return errTransient }, nil)
	now = now.Add(2 * time.Second)
	_ = b.Do(func() error { return nil }, nil)

	want := []string{"closed>open", "open>half_open", "half_open>open", "open>half_open", "half_open>closed"}
	if len(changes) != len(want) {
		t.Fatalf("unexpected transitions: %v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("transition %d: want %s, got %s (all: %v)", i, want[i], changes[i], changes)
		}
	}
}
