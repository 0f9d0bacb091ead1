package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	enabled  bool
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requestsPerMin per key with the given burst
func NewRateLimiter(enabled bool, requestsPerMin, burst int) *RateLimiter {
	r := &RateLimiter{visitors: make(map[string]*visitor)}
	r.Configure(enabled, requestsPerMin, burst)
	return r
}

// Configure changes the limits; existing buckets are reset
func (r *RateLimiter) Configure(enabled bool, requestsPerMin, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enabled = enabled
	r.limit = rate.Limit(float64(requestsPerMin) / 60.0)
	r.burst = burst
	r.visitors = make(map[string]*visitor)
}

// Allow reports whether a request for key may proceed now
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return true
	}

	v, ok := r.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Cleanup forgets keys idle for longer than maxIdle
func (r *RateLimiter) Cleanup(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for key, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}
