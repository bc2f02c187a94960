package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_StateClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected initial state to be Closed, got %s", cb.GetState())
	}
	if !cb.allowRequest() {
		t.Error("Expected to allow request in Closed state")
	}
}

func TestCircuitBreaker_OpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateClosed {
		t.Error("Expected state to still be Closed after 2 failures")
	}

	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after 3 failures")
	}
	if cb.allowRequest() {
		t.Error("Expected to not allow request in Open state")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(true)
	cb.RecordResult(false)

	if cb.GetState() != StateClosed {
		t.Error("Expected non-consecutive failures to keep the circuit Closed")
	}
}

func TestCircuitBreaker_HalfOpenThenClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 50*time.Millisecond)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Probe %d: expected no error, got %v", i, err)
		}
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected Closed after successful probes, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 50*time.Millisecond)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if !cb.allowRequest() {
			t.Fatalf("Expected probe %d to be allowed", i)
		}
	}
	if cb.allowRequest() {
		t.Error("Expected fourth concurrent probe to be rejected")
	}
	if cb.GetState() != StateHalfOpen {
		t.Errorf("Expected HalfOpen, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_OpenAfterFailureInHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 50*time.Millisecond)
	cb.RecordResult(false)

	time.Sleep(80 * time.Millisecond)

	err := cb.Call(func() error { return errors.New("still down") })
	if err == nil || errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected probe error, got %v", err)
	}
	if cb.GetState() != StateOpen {
		t.Error("Expected state to be Open after failure in HalfOpen")
	}
}

func TestCircuitBreaker_CallOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 1*time.Second)
	cb.RecordResult(false)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("Expected function not to run while circuit is open")
	}
}

func TestCircuitBreaker_FailurePredicate(t *testing.T) {
	clientErr := errors.New("bad request")
	cb := NewCircuitBreaker("test", 1, 1*time.Second).
		WithFailurePredicate(func(err error) bool { return !errors.Is(err, clientErr) })

	if err := cb.Call(func() error { return clientErr }); !errors.Is(err, clientErr) {
		t.Fatalf("Expected client error returned, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Error("Expected ignored errors to keep the circuit Closed")
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []CircuitState
	cb := NewCircuitBreaker("groq", 1, 1*time.Second).
		OnStateChange(func(name string, from, to CircuitState) {
			if name != "groq" {
				t.Errorf("Expected name groq, got %s", name)
			}
			transitions = append(transitions, to)
		})

	cb.RecordResult(false)
	cb.Reset()

	if len(transitions) != 2 || transitions[0] != StateOpen || transitions[1] != StateClosed {
		t.Errorf("Unexpected transitions: %v", transitions)
	}
}

func TestCircuitBreaker_GetStats(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(true)
	cb.RecordResult(true)
	cb.RecordResult(false)

	state, requestCount, failureCount, failureRate := cb.GetStats()
	if state != StateClosed {
		t.Errorf("Expected state Closed, got %s", state)
	}
	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}
	if failureCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failureCount)
	}
	if failureRate < 33.0 || failureRate > 34.0 {
		t.Errorf("Expected failure rate around 33.33%%, got %.2f%%", failureRate)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, 1*time.Second)

	cb.RecordResult(false)
	cb.RecordResult(false)
	cb.RecordResult(false)
	if cb.GetState() != StateOpen {
		t.Fatal("Expected circuit to be Open")
	}

	cb.Reset()

	state, requestCount, failureCount, _ := cb.GetStats()
	if state != StateClosed || requestCount != 0 || failureCount != 0 {
		t.Error("Expected stats to be reset")
	}
}
