// Per-IP limit for the import and share endpoints: a fixed window held in
// memory.
package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// sweepThreshold is the bucket count above which idle buckets are dropped.
const sweepThreshold = 1024

// RateLimiter allows maxRate requests per window for each client IP.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	maxRate int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	start time.Time
	used  int
}

// NewRateLimiter creates a rate limiter allowing maxRate requests per period.
func NewRateLimiter(maxRate int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		maxRate: maxRate,
		period:  period,
		now:     time.Now,
	}
}

// Allow counts a request from ip. When the limit is spent it returns false
// and the time left until the window resets.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.windows) >= sweepThreshold {
		for k, w := range rl.windows {
			if now.Sub(w.start) > 2*rl.period {
				delete(rl.windows, k)
			}
		}
	}

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.windows[ip] = &window{start: now, used: 1}
		return true, 0
	}
	if w.used < rl.maxRate {
		w.used++
		return true, 0
	}
	return false, w.start.Add(rl.period).Sub(now)
}

// retrySeconds is the Retry-After value for a wait: whole seconds plus one.
func retrySeconds(d time.Duration) int {
	return int(d.Seconds()) + 1
}

// RateLimitMiddleware answers 429 once a client IP exceeds the limit.
// RemoteAddr is expected to be rewritten by middleware.RealIP upstream.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
			if ok, wait := rl.Allow(ip); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(wait)))
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
