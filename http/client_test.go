package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := New(DefaultConfig())
	if client == nil {
		t.Fatal("expected client to be created")
	}
	if client.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.Timeout)
	}
	if _, ok := client.Transport.(*Transport); !ok {
		t.Errorf("Transport = %T, want *Transport", client.Transport)
	}
}

func TestNewClientNilConfig(t *testing.T) {
	client := New(nil)
	if client == nil {
		t.Fatal("expected client to be created with default config")
	}
}

func newTestTransport(t *testing.T, server *httptest.Server) (*http.Client, *RateLimiter, string) {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	host := u.Hostname()
	cfg := DefaultRateLimiterConfig()
	cfg.HostRates[host] = 100
	rl := NewRateLimiter(cfg)
	return &http.Client{Transport: &Transport{Limiter: rl}}, rl, host
}

func TestTransportPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, rl, host := newTestTransport(t, server)

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if rl.Backoff(host) != nil {
		t.Error("successful request should not create backoff state")
	}
}

func TestTransportRecordsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, rl, host := newTestTransport(t, server)

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("rate limit responses are returned, not turned into errors: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	state := rl.Backoff(host)
	if state == nil {
		t.Fatal("expected backoff state after 429")
	}
	if state.CurrentBackoff != 2*time.Second {
		t.Errorf("CurrentBackoff = %v, want 2s from Retry-After", state.CurrentBackoff)
	}
}

func TestTransportHonorsBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, rl, host := newTestTransport(t, server)
	rl.RecordRateLimitError(host, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)

	if _, err := client.Do(req); err == nil {
		t.Error("request inside backoff window should fail once the context expires")
	}
}

func TestIsRateLimited(t *testing.T) {
	withRetry := http.Header{}
	withRetry.Set("Retry-After", "5")
	exhausted := http.Header{}
	exhausted.Set("X-RateLimit-Remaining", "0")

	tests := []struct {
		name   string
		status int
		header http.Header
		want   bool
	}{
		{"ok", http.StatusOK, http.Header{}, false},
		{"too many requests", http.StatusTooManyRequests, http.Header{}, true},
		{"unavailable", http.StatusServiceUnavailable, http.Header{}, true},
		{"plain forbidden", http.StatusForbidden, http.Header{}, false},
		{"forbidden with retry-after", http.StatusForbidden, withRetry, true},
		{"forbidden with exhausted quota", http.StatusForbidden, exhausted, true},
		{"not found", http.StatusNotFound, http.Header{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.status, tt.header); got != tt.want {
				t.Errorf("IsRateLimited(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"absent", "", 0},
		{"seconds", "120", 120 * time.Second},
		{"garbage", "soon", 0},
		{"past date", "Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			if got := ParseRetryAfter(h); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
