package http

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Well-known Google API hosts.
const (
	YouTubeHost      = "youtube.googleapis.com"
	LegacyGoogleAPIs = "www.googleapis.com"
	SheetsHost       = "sheets.googleapis.com"
)

// Backoff tuning applied when an API host signals rate limiting.
const (
	// InitialBackoff is the first pause after a rate limit response.
	InitialBackoff = 1 * time.Second
	// MaxBackoff caps the pause between requests to a limited host.
	MaxBackoff = 60 * time.Second
	// BackoffMultiplier grows the pause on consecutive rate limit responses.
	BackoffMultiplier = 2.0
	// BackoffCooldownPeriod is how long after last error before resetting backoff
	BackoffCooldownPeriod = 5 * time.Minute
	// MinRPSMultiplier is the minimum rate reduction (0.25 = 25% of original)
	MinRPSMultiplier = 0.25
)

// RateLimiter applies a token bucket per API host and slows a host down after
// it answers with rate limit responses.
type RateLimiter struct {
	limiters     map[string]*rate.Limiter
	backoffState map[string]*BackoffState
	mu           sync.RWMutex
	config       RateLimiterConfig
}

// BackoffState tracks rate limit backoff for a host.
type BackoffState struct {
	// CurrentBackoff is the current backoff duration
	CurrentBackoff time.Duration
	// LastError is when the last rate limit error occurred
	LastError time.Time
	// ConsecutiveErrors is the count of consecutive rate limit errors
	ConsecutiveErrors int
	// OriginalRPS is the configured rate restored after cooldown
	OriginalRPS float64
	// ReducedRPS is the current reduced rate (0 means using original)
	ReducedRPS float64
}

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// HostRates maps a host name to requests per second. 0 means unlimited.
	HostRates map[string]float64
	// DefaultRPS applies to hosts missing from HostRates. 0 means unlimited.
	DefaultRPS float64
	// EnableDynamicBackoff enables automatic rate reduction on errors
	EnableDynamicBackoff bool
}

// DefaultRateLimiterConfig returns conservative rates for the YouTube Data API
// and the Sheets API. Token endpoints and other hosts are not limited.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		HostRates: map[string]float64{
			YouTubeHost:      5.0,
			LegacyGoogleAPIs: 5.0,
			SheetsHost:       1.0, // 60 requests per minute per user
		},
		EnableDynamicBackoff: true,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.HostRates == nil {
		cfg.HostRates = make(map[string]float64)
	}

	return &RateLimiter{
		limiters:     make(map[string]*rate.Limiter),
		backoffState: make(map[string]*BackoffState),
		config:       cfg,
	}
}

// Wait blocks until the host's token bucket allows a request or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl == nil {
		return nil
	}

	limiter := rl.getLimiter(host)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// getLimiter returns the limiter for host, creating it on first use.
// It returns nil for unlimited hosts.
func (rl *RateLimiter) getLimiter(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rps := rl.rpsLocked(host)
	if rps == 0 {
		return nil
	}

	if limiter, ok := rl.limiters[host]; ok {
		return limiter
	}

	// Burst of 1 so requests are spaced evenly.
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[host] = limiter
	return limiter
}

// rpsLocked returns the configured rate for host. Caller holds rl.mu.
func (rl *RateLimiter) rpsLocked(host string) float64 {
	if rps, ok := rl.config.HostRates[host]; ok {
		return rps
	}
	return rl.config.DefaultRPS
}

// RPS returns the configured requests per second for host.
func (rl *RateLimiter) RPS(host string) float64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.rpsLocked(host)
}

// SetHostRate sets the rate limit for a host, replacing any existing limiter.
func (rl *RateLimiter) SetHostRate(host string, rps float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.config.HostRates[host] = rps
	delete(rl.limiters, host)
}

// RecordRateLimitError records a rate limit response from host and returns
// the pause to observe before the next request.
func (rl *RateLimiter) RecordRateLimitError(host string, retryAfter time.Duration) time.Duration {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		if retryAfter > 0 {
			return retryAfter
		}
		return InitialBackoff
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, exists := rl.backoffState[host]
	if !exists {
		state = &BackoffState{
			CurrentBackoff: InitialBackoff,
			OriginalRPS:    rl.rpsLocked(host),
		}
		rl.backoffState[host] = state
	}

	state.LastError = time.Now()
	state.ConsecutiveErrors++

	// 1s -> 2s -> 4s -> ... -> max
	if state.ConsecutiveErrors > 1 {
		state.CurrentBackoff = time.Duration(float64(state.CurrentBackoff) * BackoffMultiplier)
		if state.CurrentBackoff > MaxBackoff {
			state.CurrentBackoff = MaxBackoff
		}
	}

	if retryAfter > state.CurrentBackoff {
		state.CurrentBackoff = retryAfter
	}

	rl.reduceRate(host, state)

	return state.CurrentBackoff
}

// reduceRate lowers the host's rate according to its consecutive errors:
// 1 error 75%, 2 errors 50%, 3+ errors 25%. Caller holds rl.mu.
func (rl *RateLimiter) reduceRate(host string, state *BackoffState) {
	factor := 1.0
	switch {
	case state.ConsecutiveErrors >= 3:
		factor = MinRPSMultiplier
	case state.ConsecutiveErrors == 2:
		factor = 0.5
	case state.ConsecutiveErrors == 1:
		factor = 0.75
	}

	state.ReducedRPS = state.OriginalRPS * factor

	if limiter, ok := rl.limiters[host]; ok && state.ReducedRPS > 0 {
		limiter.SetLimit(rate.Limit(state.ReducedRPS))
	}
}

// RecordSuccess records a successful response, gradually lifting backoff.
func (rl *RateLimiter) RecordSuccess(host string) {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, exists := rl.backoffState[host]
	if !exists {
		return
	}

	if time.Since(state.LastError) > BackoffCooldownPeriod {
		if limiter, ok := rl.limiters[host]; ok && state.OriginalRPS > 0 {
			limiter.SetLimit(rate.Limit(state.OriginalRPS))
		}
		delete(rl.backoffState, host)
		return
	}

	if state.ConsecutiveErrors > 0 {
		state.ConsecutiveErrors--

		// Recover to half rate now, full rate after the cooldown.
		if state.ConsecutiveErrors == 0 && state.ReducedRPS > 0 {
			half := state.OriginalRPS * 0.5
			if half > state.ReducedRPS {
				state.ReducedRPS = half
				if limiter, ok := rl.limiters[host]; ok {
					limiter.SetLimit(rate.Limit(half))
				}
			}
		}
	}
}

// Backoff returns a copy of the host's backoff state, or nil if none.
func (rl *RateLimiter) Backoff(host string) *BackoffState {
	if rl == nil {
		return nil
	}

	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if state, ok := rl.backoffState[host]; ok {
		cp := *state
		return &cp
	}
	return nil
}

// IsBackedOff returns true if the host is still inside its backoff window.
func (rl *RateLimiter) IsBackedOff(host string) bool {
	state := rl.Backoff(host)
	if state == nil {
		return false
	}
	return time.Since(state.LastError) < state.CurrentBackoff
}

// WaitForBackoff waits for the host's backoff window to pass.
func (rl *RateLimiter) WaitForBackoff(ctx context.Context, host string) error {
	state := rl.Backoff(host)
	if state == nil {
		return nil
	}

	remaining := state.CurrentBackoff - time.Since(state.LastError)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-time.After(remaining):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
