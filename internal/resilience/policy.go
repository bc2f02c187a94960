package resilience

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rajin-khan/meetminsgen/internal/config"
	"github.com/rajin-khan/meetminsgen/internal/observability"
)

// Policy guards calls to one remote service with a circuit breaker and bounded retry
type Policy struct {
	breaker     *CircuitBreaker
	retry       *RetryConfig
	isRetryable IsRetryableError
	logger      zerolog.Logger
}

// NewPolicy builds a policy for service from the resilience settings in cfg.
// Only errors accepted by isRetryable are retried or counted by the breaker.
func NewPolicy(service string, cfg *config.Config, isRetryable IsRetryableError, logger zerolog.Logger) *Policy {
	breaker := NewCircuitBreaker(
		service,
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	).OnStateChange(func(name string, from, to CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(to))
		logger.Warn().
			Str("service", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("Circuit breaker state changed")
	})
	if isRetryable != nil {
		breaker.WithFailurePredicate(isRetryable)
	}

	return &Policy{
		breaker: breaker,
		retry: &RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
		isRetryable: isRetryable,
		logger:      logger,
	}
}

// Do runs fn under the policy. Each attempt passes through the breaker,
// so an open circuit stops retrying with ErrCircuitOpen.
func (p *Policy) Do(ctx context.Context, fn RetryableFunc) error {
	return RetryNotify(ctx, func(ctx context.Context) error {
		err := p.breaker.Call(func() error { return fn(ctx) })
		if err != nil && err != ErrCircuitOpen && p.breaker.isFailure(err) {
			observability.IncrementCircuitBreakerFailures(p.breaker.Name())
		}
		return err
	}, p.retry, p.isRetryable, func(attempt int, err error, wait time.Duration) {
		p.logger.Warn().
			Err(err).
			Str("service", p.breaker.Name()).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Remote call failed, retrying")
	})
}

// Breaker exposes the underlying circuit breaker
func (p *Policy) Breaker() *CircuitBreaker {
	return p.breaker
}
