package server

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	loginMaxFailures = 5
	loginWindow      = 5 * time.Minute
	loginBlockedFor  = 10 * time.Minute
)

// loginRateLimiter blocks repeated failed sign-in attempts per client.
type loginRateLimiter struct {
	mu      sync.Mutex
	entries map[string]loginRateLimitEntry
}

type loginRateLimitEntry struct {
	failures       int
	firstFailureAt time.Time
	blockedUntil   time.Time
}

func newLoginRateLimiter() *loginRateLimiter {
	return &loginRateLimiter{entries: make(map[string]loginRateLimitEntry)}
}

// Allow reports whether the client may attempt a sign-in now.
func (l *loginRateLimiter) Allow(key string, now time.Time) bool {
	if l == nil || key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entries[key]
	if !entry.blockedUntil.IsZero() && now.Before(entry.blockedUntil) {
		return false
	}
	if !entry.blockedUntil.IsZero() && !now.Before(entry.blockedUntil) {
		delete(l.entries, key)
	}
	return true
}

// RecordFailure notes one failed attempt and blocks after the threshold.
func (l *loginRateLimiter) RecordFailure(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.entries[key]
	if !entry.firstFailureAt.IsZero() && now.Sub(entry.firstFailureAt) > loginWindow {
		entry = loginRateLimitEntry{}
	}
	if entry.firstFailureAt.IsZero() {
		entry.firstFailureAt = now
	}
	entry.failures++
	if entry.failures >= loginMaxFailures {
		entry.blockedUntil = now.Add(loginBlockedFor)
	}
	l.entries[key] = entry
}

// RecordSuccess clears the failure history for a client.
func (l *loginRateLimiter) RecordSuccess(key string) {
	if l == nil || key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
