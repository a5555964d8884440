package resilience

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/patgov/audiomon/internal/errors"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		if attempts < 3 {
			return apperrors.New(apperrors.CodeStreamOpenFailed, "busy")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryCeilingTermination(t *testing.T) {
	// After MaxRetries+1 calls the loop must stop; no extra attempt occurs.
	attempts := 0
	cfg := RetryConfig{MaxRetries: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return apperrors.New(apperrors.CodeStreamOpenFailed, "still busy")
	})

	if err == nil {
		t.Fatal("Retry = nil, want error")
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want exactly MaxRetries+1 = 5", attempts)
	}
}

func TestRetryStopsOnTerminalError(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond}

	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return apperrors.New(apperrors.CodePermissionDenied, "no mic access")
	})

	if !apperrors.IsCode(err, apperrors.CodePermissionDenied) {
		t.Fatalf("err = %v, want permission denied", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (terminal errors are not retried)", attempts)
	}
}

func TestRetryRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error {
		t.Error("fn should not run with cancelled context")
		return nil
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, JitterFactor: 0.0001}

	prev := time.Duration(0)
	for attempt := 0; attempt < 4; attempt++ {
		d := BackoffDelay(cfg, attempt)
		if d < prev {
			t.Errorf("attempt %d delay %v < previous %v", attempt, d, prev)
		}
		prev = d
	}

	if d := BackoffDelay(cfg, 20); d > cfg.MaxDelay+cfg.MaxDelay/5 {
		t.Errorf("attempt 20 delay %v exceeds cap %v", d, cfg.MaxDelay)
	}
}
