package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.RWMutex
	limits  map[string][]time.Time
	window  time.Duration
	maxHits int
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		limits:  make(map[string][]time.Time),
		window:  window,
		maxHits: maxHits,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(key, time.Now())

	if len(l.limits[key]) >= l.maxHits {
		return false
	}

	l.limits[key] = append(l.limits[key], time.Now())
	return true
}

// Remaining reports how many hits the key has left in the current window
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(key, time.Now())

	remaining := l.maxHits - len(l.limits[key])
	if remaining < 0 {
		return 0
	}
	return remaining
}

// pruneLocked drops hits that have aged out of the window. Callers hold the lock.
func (l *Limiter) pruneLocked(key string, now time.Time) {
	windowStart := now.Add(-l.window)

	hits, exists := l.limits[key]
	if !exists {
		return
	}

	valid := hits[:0]
	for _, hit := range hits {
		if hit.After(windowStart) {
			valid = append(valid, hit)
		}
	}

	if len(valid) == 0 {
		delete(l.limits, key)
		return
	}
	l.limits[key] = valid
}
