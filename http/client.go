// Package http provides the HTTP transport used by the Google API clients,
// with per-host rate limiting and backoff on rate limit responses.
package http

import (
	"net/http"
	"strconv"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	// Timeout for individual HTTP requests
	Timeout time.Duration

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Connection pool configuration
	Transport TransportConfig
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	MaxIdleConns int
	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int
	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		RateLimiter: DefaultRateLimiterConfig(),
		Transport:   DefaultTransportConfig(),
	}
}

// DefaultTransportConfig returns defaults sized for a handful of API hosts.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
}

// New creates an *http.Client whose transport rate limits per host.
func New(cfg *Config) *http.Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &Transport{
			Base:    base,
			Limiter: NewRateLimiter(cfg.RateLimiter),
		},
	}
}

// Transport is an http.RoundTripper that waits on the per-host rate limiter
// before each request and feeds rate limit responses back into it.
// Responses are returned unchanged; error mapping is left to the API client.
type Transport struct {
	Base    http.RoundTripper
	Limiter *RateLimiter
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Hostname()
	ctx := req.Context()

	if err := t.Limiter.WaitForBackoff(ctx, host); err != nil {
		return nil, err
	}
	if err := t.Limiter.Wait(ctx, host); err != nil {
		return nil, err
	}

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if IsRateLimited(resp.StatusCode, resp.Header) {
		t.Limiter.RecordRateLimitError(host, ParseRetryAfter(resp.Header))
	} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		t.Limiter.RecordSuccess(host)
	}

	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// IsRateLimited reports whether a response signals rate limiting: 429, 503,
// or a 403 carrying rate limit headers.
func IsRateLimited(statusCode int, header http.Header) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	case http.StatusForbidden:
		if header.Get("Retry-After") != "" {
			return true
		}
		return header.Get("X-RateLimit-Remaining") == "0"
	}
	return false
}

// ParseRetryAfter extracts the Retry-After header value, accepting either
// delay seconds or an HTTP date. It returns 0 if absent or unparseable.
func ParseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}
