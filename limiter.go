package folio

import (
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter keyed by client IP.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	now    func() time.Time
	stop   chan struct{}
	once   sync.Once
}

// NewRateLimiter creates a RateLimiter that allows max requests per window
// and starts a goroutine pruning idle clients. Call Stop to end it.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *RateLimiter) cleanup() {
	every := l.window
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *RateLimiter) prune() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, hits := range l.hits {
		kept := keepAfter(hits, cutoff)
		if len(kept) == 0 {
			delete(l.hits, ip)
		} else {
			l.hits[ip] = kept
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *RateLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Allow checks if the IP has not exceeded the rate limit and records the request.
func (l *RateLimiter) Allow(ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

// Check returns true if the IP has not exceeded the rate limit.
// It does not record a request.
func (l *RateLimiter) Check(ip string) bool {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := keepAfter(l.hits[ip], cutoff)
	l.hits[ip] = kept
	return len(kept) < l.max
}

// Record registers a request for the given IP.
func (l *RateLimiter) Record(ip string) {
	l.mu.Lock()
	l.hits[ip] = append(l.hits[ip], l.now())
	l.mu.Unlock()
}

// RetryAfter returns how long until ip may make another request.
func (l *RateLimiter) RetryAfter(ip string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	hits := l.hits[ip]
	if l.max <= 0 {
		// A limiter with no capacity never admits a request.
		return max(l.window, 0)
	}
	if len(hits) < l.max {
		return 0
	}
	wait := hits[len(hits)-l.max].Add(l.window).Sub(l.now())
	if wait < 0 {
		return 0
	}
	return wait
}

func keepAfter(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
