package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window hit counter keyed by caller.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string][]time.Time
	window  time.Duration
	maxHits int
	now     func() time.Time
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	return &Limiter{
		limits:  make(map[string][]time.Time),
		window:  window,
		maxHits: maxHits,
		now:     time.Now,
	}
}

// prune drops hits older than the window and returns what is left
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	windowStart := now.Add(-l.window)

	hits := l.limits[key]
	valid := hits[:0]
	for _, hit := range hits {
		if hit.After(windowStart) {
			valid = append(valid, hit)
		}
	}

	if len(valid) == 0 {
		delete(l.limits, key)
		return nil
	}
	l.limits[key] = valid
	return valid
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hits := l.prune(key, now)
	if len(hits) >= l.maxHits {
		return false
	}

	l.limits[key] = append(hits, now)
	return true
}

// Remaining returns how many hits key has left in the current window
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	left := l.maxHits - len(l.prune(key, l.now()))
	if left < 0 {
		return 0
	}
	return left
}
