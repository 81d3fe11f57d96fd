package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relist/backend/internal/interfaces/http/dto"
)

// RateLimiter counts requests per key in fixed windows. Counters live in
// memory, so limits apply per API instance.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
}

type window struct {
	count   int
	startAt time.Time
}

// NewRateLimiter allows up to limit requests per key within each period and
// sweeps stale keys in the background.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
	}
	go rl.sweepStale()
	return rl
}

func (rl *RateLimiter) sweepStale() {
	ticker := time.NewTicker(rl.period * 2)
	defer ticker.Stop()

	for now := range ticker.C {
		rl.mu.Lock()
		for key, w := range rl.windows {
			if now.Sub(w.startAt) > rl.period*2 {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow consumes one request from key's current window, reporting false
// when the window is exhausted.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.startAt) >= rl.period {
		rl.windows[key] = &window{count: 1, startAt: now}
		return true
	}
	if w.count < rl.limit {
		w.count++
		return true
	}
	return false
}

// Remaining reports how many requests key has left in its current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || time.Since(w.startAt) >= rl.period {
		return rl.limit
	}
	return rl.limit - w.count
}

// RateLimit throttles by client IP, scoped per seller when the request
// carries one, and advertises the limit through X-RateLimit headers.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if sellerID := getSellerID(c); sellerID != "" {
			key = sellerID + ":" + key
		}

		if !limiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(dto.ErrCodeRateLimited, "Too many requests. Please try again later."))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
