package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter caps requests per client over a fixed window. It guards the
// interact endpoint, which is the only path that can reach the paid dialogue
// provider.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCount
	maxRate int
	window  time.Duration
}

type windowCount struct {
	start time.Time
	count int
}

// NewRateLimiter allows maxRate requests per client per window.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*windowCount),
		maxRate: maxRate,
		window:  window,
	}
	go rl.sweep()
	return rl
}

// Allow records one request for ip and reports whether it fits the window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	wc, ok := rl.clients[ip]
	if !ok || now.Sub(wc.start) >= rl.window {
		rl.clients[ip] = &windowCount{start: now, count: 1}
		return true
	}
	if wc.count >= rl.maxRate {
		return false
	}
	wc.count++
	return true
}

// RetryAfter returns whole seconds until the window resets for ip, rounded up.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	wc, ok := rl.clients[ip]
	if !ok {
		return 0
	}
	remaining := rl.window - time.Since(wc.start)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// sweep drops clients whose window expired long ago.
func (rl *RateLimiter) sweep() {
	for range time.Tick(time.Hour) {
		rl.mu.Lock()
		cutoff := time.Now().Add(-2 * rl.window)
		for ip, wc := range rl.clients {
			if wc.start.Before(cutoff) {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// clientIP resolves the caller identity: the first X-Forwarded-For hop when
// present, otherwise the connection address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects over-limit requests with 429 and a Retry-After
// header.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
