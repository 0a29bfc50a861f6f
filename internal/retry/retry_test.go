package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_Success(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), fastConfig(3), nil, func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Do() returned error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_SingleAttemptByDefault(t *testing.T) {
	attempts := 0
	tempErr := errors.New("temporary")
	cfg := DefaultConfig()

	err := Do(context.Background(), cfg, nil, func(ctx context.Context) error {
		attempts++
		return tempErr
	})

	if err != tempErr {
		t.Errorf("Do() returned error = %v, want unwrapped %v", err, tempErr)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_PermanentError(t *testing.T) {
	attempts := 0
	permanentErr := errors.New("permanent")

	err := Do(context.Background(), fastConfig(3), nil, func(ctx context.Context) error {
		attempts++
		return Permanent(permanentErr)
	})

	if !errors.Is(err, permanentErr) {
		t.Errorf("Do() returned error = %v, want %v", err, permanentErr)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_CustomClassifier(t *testing.T) {
	attempts := 0
	stopErr := errors.New("stop")
	classifier := func(err error) bool {
		return !errors.Is(err, stopErr)
	}

	err := Do(context.Background(), fastConfig(3), classifier, func(ctx context.Context) error {
		attempts++
		return stopErr
	})

	if !errors.Is(err, stopErr) {
		t.Errorf("Do() returned error = %v, want %v", err, stopErr)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_RetryableError(t *testing.T) {
	attempts := 0
	successAfter := 2

	err := Do(context.Background(), fastConfig(5), IsRetryable, func(ctx context.Context) error {
		attempts++
		if attempts < successAfter {
			return errors.New("temporary")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() returned error = %v, want nil", err)
	}
	if attempts != successAfter {
		t.Errorf("Do() made %d attempts, want %d", attempts, successAfter)
	}
}

func TestDo_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	tempErr := errors.New("temporary")
	maxRetries := 3

	err := Do(context.Background(), fastConfig(maxRetries), IsRetryable, func(ctx context.Context) error {
		attempts++
		return tempErr
	})

	var retryErr *RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("Do() returned error = %v, want *RetryableError", err)
	}
	if retryErr.Retries != maxRetries {
		t.Errorf("Retries = %d, want %d", retryErr.Retries, maxRetries)
	}
	if !errors.Is(err, tempErr) {
		t.Errorf("Do() error should wrap %v", tempErr)
	}
	if attempts != maxRetries+1 {
		t.Errorf("Do() made %d attempts, want %d", attempts, maxRetries+1)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	attempts := 0
	cfg := Config{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		Multiplier:     2.0,
	}

	ctx, cancel := context.WithCancel(context.Background())

	err := Do(ctx, cfg, IsRetryable, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("temporary")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() returned error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"permanent", Permanent(errors.New("bad request")), false},
		{"generic error", errors.New("generic"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxRetries != 0 {
		t.Errorf("DefaultConfig().MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.InitialBackoff != 1*time.Second {
		t.Errorf("DefaultConfig().InitialBackoff = %v, want 1s", cfg.InitialBackoff)
	}
	if cfg.MaxBackoff != 30*time.Second {
		t.Errorf("DefaultConfig().MaxBackoff = %v, want 30s", cfg.MaxBackoff)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("DefaultConfig().Multiplier = %f, want 2.0", cfg.Multiplier)
	}
}
