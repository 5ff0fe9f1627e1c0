// Per-client limiting for the fast-forward endpoint. A replay monopolizes
// the engine for its whole duration, so each caller gets a fixed allowance
// per rolling window rather than unbounded access.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// replayLimiter grants each client IP a fixed number of requests per window.
type replayLimiter struct {
	mu        sync.Mutex
	allowance int
	window    time.Duration
	clients   map[string]*clientWindow
}

type clientWindow struct {
	used    int
	started time.Time
}

func newReplayLimiter(allowance int, window time.Duration) *replayLimiter {
	l := &replayLimiter{
		allowance: allowance,
		window:    window,
		clients:   make(map[string]*clientWindow),
	}
	go l.pruneLoop()
	return l
}

// Allow reports whether ip may make another request, consuming one slot of
// its allowance. A window starts on the first request and resets once it
// expires.
func (l *replayLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[ip]
	if !ok || now.Sub(c.started) >= l.window {
		l.clients[ip] = &clientWindow{used: 1, started: now}
		return true
	}
	if c.used < l.allowance {
		c.used++
		return true
	}
	return false
}

// RetryAfter returns whole seconds until ip's window resets.
func (l *replayLimiter) RetryAfter(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		return 0
	}
	remaining := l.window - time.Since(c.started)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// pruneLoop drops windows idle for two full periods so the map does not grow
// with every address that ever called.
func (l *replayLimiter) pruneLoop() {
	for {
		time.Sleep(time.Hour)
		l.mu.Lock()
		cutoff := time.Now().Add(-2 * l.window)
		for ip, c := range l.clients {
			if c.started.Before(cutoff) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

// limitByIP rejects requests over the caller's allowance with a 429 and a
// Retry-After header.
func limitByIP(l *replayLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter(ip)))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// clientIP resolves the caller's address, preferring the first hop recorded
// by a proxy over the raw socket peer.
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
