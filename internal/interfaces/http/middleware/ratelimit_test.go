package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("permits up to the limit then blocks", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"), "request %d", i+1)
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("keys do not share windows", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("window expiry resets the count", func(t *testing.T) {
		limiter := NewRateLimiter(1, 50*time.Millisecond)

		assert.True(t, limiter.Allow("10.0.0.3"))
		assert.False(t, limiter.Allow("10.0.0.3"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, limiter.Allow("10.0.0.3"))
	})

	t.Run("concurrent callers never exceed the limit", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)

		var wg sync.WaitGroup
		var allowed int64
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("contended") {
					atomic.AddInt64(&allowed, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(100), allowed)
	})
}

func TestRateLimiter_Remaining(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)

	assert.Equal(t, 5, limiter.Remaining("fresh"))

	limiter.Allow("fresh")
	limiter.Allow("fresh")
	assert.Equal(t, 3, limiter.Remaining("fresh"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newLimitedRouter := func(limit int) *gin.Engine {
		r := gin.New()
		r.Use(RateLimit(NewRateLimiter(limit, time.Minute)))
		r.GET("/sync/status", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		r.POST("/sellers/:id/scrape", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return r
	}

	get := func(router *gin.Engine, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("serves requests within the limit and advertises headers", func(t *testing.T) {
		router := newLimitedRouter(3)

		w := get(router, "/sync/status")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("returns 429 with the registry code once exhausted", func(t *testing.T) {
		router := newLimitedRouter(2)

		assert.Equal(t, http.StatusOK, get(router, "/sync/status").Code)
		assert.Equal(t, http.StatusOK, get(router, "/sync/status").Code)

		w := get(router, "/sync/status")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	})

	t.Run("limits are scoped per seller", func(t *testing.T) {
		router := newLimitedRouter(1)

		seller1 := "/sellers/550e8400-e29b-41d4-a716-446655440000/scrape"
		seller2 := "/sellers/650e8400-e29b-41d4-a716-446655440111/scrape"

		post := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
			return w
		}

		assert.Equal(t, http.StatusOK, post(seller1).Code)
		assert.Equal(t, http.StatusTooManyRequests, post(seller1).Code)
		assert.Equal(t, http.StatusOK, post(seller2).Code, "other sellers keep their own budget")
	})
}
