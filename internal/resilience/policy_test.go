package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/config"
)

var errTransient = errors.New("transient")

func testPolicy(attempts, maxFailures int) *Policy {
	cfg := &config.Config{
		RetryMaxAttempts:           attempts,
		RetryInitialBackoff:        1,
		CircuitBreakerMaxFailures:  maxFailures,
		CircuitBreakerResetTimeout: 60,
	}
	return NewPolicy("test", cfg, func(err error) bool { return errors.Is(err, errTransient) }, zerolog.Nop())
}

func TestPolicy_RetriesTransient(t *testing.T) {
	p := testPolicy(3, 10)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestPolicy_DoesNotRetryPermanent(t *testing.T) {
	p := testPolicy(3, 10)
	permanent := errors.New("401 unauthorized")

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Fatalf("Expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if p.Breaker().GetState() != StateClosed {
		t.Error("Expected permanent errors not to trip the breaker")
	}
}

func TestPolicy_OpenCircuitStopsRetrying(t *testing.T) {
	p := testPolicy(5, 2)

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errTransient
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected breaker to stop after 2 calls, got %d", calls)
	}
}
