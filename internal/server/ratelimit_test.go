package server

import (
	"net/http/httptest"
	"testing"
)

func TestRateLimiterPerClient(t *testing.T) {
	limiter := newRateLimiter(LimitConfig{RequestsPerSecond: 1, Burst: 2})

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("second request within burst should pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("third request should be limited")
	}
	// A different client has its own bucket.
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("other client should not be affected")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	if ip := clientIP(req); ip != "192.0.2.7" {
		t.Fatalf("clientIP = %q, want 192.0.2.7", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 192.0.2.7")
	if ip := clientIP(req); ip != "203.0.113.9" {
		t.Fatalf("clientIP = %q, want first forwarded address", ip)
	}
}
