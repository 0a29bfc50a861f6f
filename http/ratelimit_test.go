package http

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})
	if rl == nil {
		t.Fatal("NewRateLimiter returned nil")
	}
	if rps := rl.RPS("example.com"); rps != 0 {
		t.Errorf("RPS() = %v, want 0 for unconfigured host", rps)
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		HostRates: map[string]float64{"api.example.com": 10.0}, // 100ms per request
	})
	ctx := context.Background()

	start := time.Now()
	if err := rl.Wait(ctx, "api.example.com"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if err := rl.Wait(ctx, "api.example.com"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("two requests took %v, want the second to wait ~100ms", elapsed)
	}
}

func TestRateLimiterUnlimitedHost(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 20; i++ {
		if err := rl.Wait(ctx, "oauth2.googleapis.com"); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unlimited host waited %v", elapsed)
	}
}

func TestRateLimiterContextCanceled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		HostRates: map[string]float64{SheetsHost: 1.0},
	})
	ctx, cancel := context.WithCancel(context.Background())

	if err := rl.Wait(ctx, SheetsHost); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	cancel()

	if err := rl.Wait(ctx, SheetsHost); err == nil {
		t.Fatal("expected context canceled error")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())

	tests := []struct {
		host string
		want float64
	}{
		{YouTubeHost, 5.0},
		{LegacyGoogleAPIs, 5.0},
		{SheetsHost, 1.0},
		{"oauth2.googleapis.com", 0},
	}
	for _, tt := range tests {
		if got := rl.RPS(tt.host); got != tt.want {
			t.Errorf("RPS(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestRateLimiterSetHostRate(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.getLimiter(SheetsHost)

	rl.SetHostRate(SheetsHost, 3.0)

	if got := rl.RPS(SheetsHost); got != 3.0 {
		t.Errorf("RPS() = %v, want 3.0", got)
	}
	if l := rl.getLimiter(SheetsHost); l == nil || float64(l.Limit()) != 3.0 {
		t.Errorf("limiter not rebuilt with new rate")
	}
}

func TestRateLimiterRecordRateLimitError(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())

	backoffs := []time.Duration{
		rl.RecordRateLimitError(YouTubeHost, 0),
		rl.RecordRateLimitError(YouTubeHost, 0),
		rl.RecordRateLimitError(YouTubeHost, 0),
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	for i := range want {
		if backoffs[i] != want[i] {
			t.Errorf("backoff[%d] = %v, want %v", i, backoffs[i], want[i])
		}
	}

	state := rl.Backoff(YouTubeHost)
	if state == nil {
		t.Fatal("Backoff() = nil after errors")
	}
	if state.ConsecutiveErrors != 3 {
		t.Errorf("ConsecutiveErrors = %d, want 3", state.ConsecutiveErrors)
	}
	if state.ReducedRPS != 5.0*MinRPSMultiplier {
		t.Errorf("ReducedRPS = %v, want %v", state.ReducedRPS, 5.0*MinRPSMultiplier)
	}
}

func TestRateLimiterRetryAfterRespected(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())

	if got := rl.RecordRateLimitError(SheetsHost, 10*time.Second); got != 10*time.Second {
		t.Errorf("backoff = %v, want Retry-After of 10s", got)
	}
}

func TestRateLimiterMaxBackoff(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())

	var last time.Duration
	for i := 0; i < 12; i++ {
		last = rl.RecordRateLimitError(SheetsHost, 0)
	}
	if last != MaxBackoff {
		t.Errorf("backoff = %v, want cap %v", last, MaxBackoff)
	}
}

func TestRateLimiterRecordSuccess(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.getLimiter(YouTubeHost)

	rl.RecordRateLimitError(YouTubeHost, 0)
	rl.RecordSuccess(YouTubeHost)

	state := rl.Backoff(YouTubeHost)
	if state == nil {
		t.Fatal("state dropped before cooldown")
	}
	if state.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want 0", state.ConsecutiveErrors)
	}

	// After the cooldown the state is cleared and the original rate restored.
	rl.mu.Lock()
	rl.backoffState[YouTubeHost].LastError = time.Now().Add(-BackoffCooldownPeriod - time.Second)
	rl.mu.Unlock()

	rl.RecordSuccess(YouTubeHost)

	if rl.Backoff(YouTubeHost) != nil {
		t.Error("state should be cleared after cooldown")
	}
	if l := rl.getLimiter(YouTubeHost); float64(l.Limit()) != 5.0 {
		t.Errorf("limit = %v, want original 5.0", l.Limit())
	}
}

func TestRateLimiterIsBackedOff(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())

	if rl.IsBackedOff(SheetsHost) {
		t.Error("fresh limiter should not be backed off")
	}

	rl.RecordRateLimitError(SheetsHost, 0)

	if !rl.IsBackedOff(SheetsHost) {
		t.Error("host should be backed off right after a rate limit error")
	}
}

func TestRateLimiterWaitForBackoffCanceled(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.RecordRateLimitError(SheetsHost, 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.WaitForBackoff(ctx, SheetsHost); err == nil {
		t.Error("WaitForBackoff() should return the context error")
	}
}

func TestRateLimiterDisabledDynamicBackoff(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	cfg.EnableDynamicBackoff = false
	rl := NewRateLimiter(cfg)

	if got := rl.RecordRateLimitError(SheetsHost, 0); got != InitialBackoff {
		t.Errorf("backoff = %v, want %v", got, InitialBackoff)
	}
	if rl.Backoff(SheetsHost) != nil {
		t.Error("no backoff state should be kept when dynamic backoff is disabled")
	}
}

func TestNilRateLimiter(t *testing.T) {
	var rl *RateLimiter

	if err := rl.Wait(context.Background(), SheetsHost); err != nil {
		t.Errorf("Wait() on nil limiter = %v", err)
	}
	if err := rl.WaitForBackoff(context.Background(), SheetsHost); err != nil {
		t.Errorf("WaitForBackoff() on nil limiter = %v", err)
	}
	rl.RecordSuccess(SheetsHost)
}
