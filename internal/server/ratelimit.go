package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter applies a global and a per-client-IP request limit.
type rateLimiter struct {
	mu     sync.Mutex
	global *rate.Limiter
	perIP  map[string]*clientLimiter
	rps    rate.Limit
	burst  int
}

func newRateLimiter(cfg LimitConfig) *rateLimiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return &rateLimiter{
		global: rate.NewLimiter(rate.Limit(rps*10), burst*10),
		perIP:  map[string]*clientLimiter{},
		rps:    rate.Limit(rps),
		burst:  burst,
	}
}

func (l *rateLimiter) Allow(key string) bool {
	if !l.global.Allow() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.perIP[key]
	if !ok {
		item = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.perIP[key] = item
	}
	item.lastSeen = time.Now()
	if len(l.perIP) > 10_000 {
		l.cleanupLocked(time.Now().Add(-10 * time.Minute))
	}
	return item.limiter.Allow()
}

func (l *rateLimiter) cleanupLocked(threshold time.Time) {
	for key, entry := range l.perIP {
		if entry.lastSeen.Before(threshold) {
			delete(l.perIP, key)
		}
	}
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
