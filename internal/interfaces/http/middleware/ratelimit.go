package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/backoffice/backend/internal/interfaces/http/dto"
)

// RateLimiter is an in-memory fixed-window limiter. Buckets are kept per
// key and swept lazily, so an idle key costs nothing after two windows.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration

	lastSweep time.Time
}

type bucket struct {
	remaining int
	windowEnd time.Time
}

// NewRateLimiter allows up to limit requests per key within each window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		window:    window,
		lastSweep: time.Now(),
	}
}

// Allow consumes one slot for key, reporting whether the request may
// proceed and how many slots remain in the current window.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweepLocked(now)

	b, ok := rl.buckets[key]
	if !ok || now.After(b.windowEnd) {
		rl.buckets[key] = &bucket{
			remaining: rl.limit - 1,
			windowEnd: now.Add(rl.window),
		}
		return true, rl.limit - 1
	}

	if b.remaining > 0 {
		b.remaining--
		return true, b.remaining
	}
	return false, 0
}

// RetryAfter reports how long until the key's window resets.
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return 0
	}
	d := time.Until(b.windowEnd)
	if d < 0 {
		return 0
	}
	return d
}

// Limit returns the per-window request budget.
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// sweepLocked drops buckets whose window ended more than a window ago.
// Runs at most once per window so hot paths stay cheap.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for key, b := range rl.buckets {
		if now.Sub(b.windowEnd) > rl.window {
			delete(rl.buckets, key)
		}
	}
}

// RateLimit limits requests per client IP and exposes the remaining
// budget through X-RateLimit headers.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		ok, remaining := limiter.Allow(key)
		if !ok {
			rejectRateLimited(c, limiter, key)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

// RateLimitByKey limits requests per caller-derived key. Used for
// marketplace sync, where each connected account gets its own budget
// regardless of the client address.
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if ok, _ := limiter.Allow(key); !ok {
			rejectRateLimited(c, limiter, key)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, limiter *RateLimiter, key string) {
	if retry := limiter.RetryAfter(key); retry > 0 {
		c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests,
		dto.NewErrorResponse(dto.ErrCodeRateLimited, "too many requests, retry later"))
}
