package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      3,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func alwaysRetryable(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func neverRetryable(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, alwaysRetryable)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	boom := errors.New("boom")
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return boom
	}, neverRetryable)

	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	e := NewExecutor(fastConfig())

	calls := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("still failing")
	}, alwaysRetryable)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	e := NewExecutor(fastConfig())

	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "flaky", func(context.Context) error {
			return errors.New("down")
		}, neverRetryable)
	}

	err := e.Execute(context.Background(), "flaky", func(context.Context) error {
		t.Fatal("call must not run while the breaker is open")
		return nil
	}, neverRetryable)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected an open-circuit error, got %v", err)
	}
}

func TestBreakersAreScopedPerOperation(t *testing.T) {
	e := NewExecutor(fastConfig())

	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "bad-op", func(context.Context) error {
			return errors.New("down")
		}, neverRetryable)
	}

	err := e.Execute(context.Background(), "good-op", func(context.Context) error {
		return nil
	}, neverRetryable)
	if err != nil {
		t.Fatalf("an open breaker must not leak across operations: %v", err)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	e := NewExecutor(fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Execute(ctx, "op", func(context.Context) error {
		return errors.New("should not matter")
	}, alwaysRetryable)
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
