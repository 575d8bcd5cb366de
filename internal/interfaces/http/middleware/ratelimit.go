package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per client in fixed windows
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*clientWindow

	done     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	start time.Time
	used  int
}

// NewRateLimiter allows limit requests per client and window. Idle clients
// are evicted in the background until Stop.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	if window > 0 {
		go rl.evictLoop()
	}
	return rl
}

// Stop ends eviction. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Limit is the per-window allowance
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-2 * rl.window)
	for key, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, key)
		}
	}
}

// current returns the live window for key, opening a fresh one when the
// previous has expired. Callers hold mu.
func (rl *RateLimiter) current(key string, now time.Time) *clientWindow {
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &clientWindow{start: now}
		rl.windows[key] = w
	}
	return w
}

// Take consumes one request for key. It returns the requests left in the
// window, whether this one was admitted and when the window resets.
func (rl *RateLimiter) Take(key string) (remaining int, ok bool, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w := rl.current(key, now)
	reset = w.start.Add(rl.window)
	if w.used >= rl.limit {
		return 0, false, reset
	}
	w.used++
	return rl.limit - w.used, true, reset
}

// Allow reports whether a request from key fits in its window
func (rl *RateLimiter) Allow(key string) bool {
	_, ok, _ := rl.Take(key)
	return ok
}

// Remaining reports the requests key may still make without consuming one
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || rl.now().Sub(w.start) >= rl.window {
		return rl.limit
	}
	return max(rl.limit-w.used, 0)
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key. Rejected requests get 429 with a
// Retry-After header in whole seconds.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		remaining, ok, reset := limiter.Take(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if ok {
			c.Next()
			return
		}

		wait := max(int(math.Ceil(reset.Sub(limiter.now()).Seconds())), 1)
		c.Header("Retry-After", strconv.Itoa(wait))
		c.Set(ErrorCodeKey, dto.ErrCodeRateLimited)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Fail(
			dto.ErrCodeRateLimited, "Request limit reached for this client", RequestIDFrom(c)))
	}
}
