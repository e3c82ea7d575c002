package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/venueops/venue-insights/internal/infra/resilience"
)

func TestRetryWithBackoff_FirstAttemptSucceeds(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 3, InitialBackoff: 5 * time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestRetryWithBackoff_RecoversAfterTransientFailures(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 4, InitialBackoff: 5 * time.Millisecond}

	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("postgrest unavailable")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ReturnsLastErrorWhenExhausted(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: 5 * time.Millisecond}

	wantErr := errors.New("persistent failure")
	calls := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error back, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts for MaxRetries=2, got %d", calls)
	}
}

func TestRetryWithBackoff_CancelledContextStopsRetrying(t *testing.T) {
	cfg := resilience.Config{MaxRetries: 5, InitialBackoff: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errors.New("failure")
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewCircuitBreaker_TripsOnRepeatedFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test")

	for i := 0; i < 6; i++ {
		cb.Execute(func() (any, error) {
			return nil, errors.New("downstream failure")
		})
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker after repeated failures, got %v", cb.State())
	}

	_, err := cb.Execute(func() (any, error) { return nil, nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState while open, got %v", err)
	}
}

func TestBulkhead_BlocksAtCapacity(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	for i := 0; i < 2; i++ {
		if err := bh.Acquire(context.Background()); err != nil {
			t.Fatalf("expected acquire %d, got %v", i+1, err)
		}
	}

	// Third acquire should block until a slot frees. Use a timeout context.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := bh.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded at capacity, got %v", err)
	}

	bh.Release()

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}
