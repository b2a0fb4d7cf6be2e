package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/shoplist/errors"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// RequestsPerMinute is the budget per key. Defaults to 60.
	RequestsPerMinute int
	// KeyFunc extracts the key from a request. Defaults to UserBasedKey.
	KeyFunc func(*gin.Context) string
	// Now defaults to time.Now.
	Now func() time.Time
}

// RateLimit applies a per-key sliding one-minute window. Over-budget
// requests get 429 RATE_LIMITED.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = UserBasedKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    cfg.RequestsPerMinute,
	}

	return func(c *gin.Context) {
		if !rl.allow(cfg.KeyFunc(c), cfg.Now()) {
			AbortWithError(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys by client IP.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// UserBasedKey keys by the authenticated user, falling back to client IP.
func UserBasedKey(c *gin.Context) string {
	if id := c.GetString(ContextKeyUserID); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	calls    int
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-time.Minute)
	rl.calls++
	if rl.calls%1000 == 0 {
		rl.prune(cutoff)
	}

	valid := filterByTime(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// prune drops idle keys. Caller holds mu.
func (rl *rateLimiter) prune(cutoff time.Time) {
	for key, times := range rl.requests {
		if valid := filterByTime(times, cutoff); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func filterByTime(times []time.Time, cutoff time.Time) []time.Time {
	var result []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}
