package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func limitedRouter(limiter Limiter, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		SetUserID(c, "user-1")
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/generations" {
				return "GENERATION"
			}
			return ""
		},
		Limiter: limiter,
		Rules:   rules,
	}))
	r.POST("/api/v1/generations", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/api/v1/generations", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, path, nil))
	return resp
}

func TestRateLimitGenerationStricterThanDefault(t *testing.T) {
	clock := newClock()
	r := limitedRouter(NewRateLimiter(clock.now), map[string]RateLimitRule{
		"DEFAULT":    {Rate: 2, Burst: 3},
		"GENERATION": {Rate: 0.1, Burst: 1},
	})

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/generations").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/api/v1/generations").Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/generations").Code, "history request %d", i+1)
	}

	clock.advance(10 * time.Second)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/generations").Code)
}

func TestRateLimit429Body(t *testing.T) {
	clock := newClock()
	r := limitedRouter(NewRateLimiter(clock.now), map[string]RateLimitRule{
		"GENERATION": {Rate: 0.5, Burst: 1},
	})

	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/generations").Code)
	resp := serve(r, http.MethodPost, "/api/v1/generations")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "2", resp.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Group        string `json:"group"`
				RetryAfterMs int64  `json:"retryAfterMs"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "rate_limited", body.Error.Code)
	assert.Equal(t, "GENERATION", body.Error.Details.Group)
	assert.Equal(t, int64(2000), body.Error.Details.RetryAfterMs)
}

func TestRateLimitSkipsGroupsWithoutRule(t *testing.T) {
	r := limitedRouter(NewRateLimiter(newClock().now), map[string]RateLimitRule{
		"GENERATION": {Rate: 0, Burst: 0},
	})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/v1/generations").Code)
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/generations").Code)
	}
}

func TestRateLimiterRejectedCallsDoNotConsumeTokens(t *testing.T) {
	clock := newClock()
	limiter := NewRateLimiter(clock.now)
	rule := RateLimitRule{Rate: 1, Burst: 1}

	ok, _ := limiter.Allow(context.Background(), "k", rule)
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		ok, retry := limiter.Allow(context.Background(), "k", rule)
		require.False(t, ok)
		assert.Equal(t, time.Second, retry)
	}
	clock.advance(time.Second)
	ok, _ = limiter.Allow(context.Background(), "k", rule)
	assert.True(t, ok)
}

func TestRateLimiterEvictsIdleKeys(t *testing.T) {
	clock := newClock()
	limiter := NewRateLimiter(clock.now)
	rule := RateLimitRule{Rate: 1, Burst: 1}

	for i := 0; i < limiterSweepSize; i++ {
		limiter.Allow(context.Background(), fmt.Sprintf("user-%d", i), rule)
	}
	require.Equal(t, limiterSweepSize, limiter.size())

	clock.advance(limiterIdleTTL + time.Minute)
	limiter.Allow(context.Background(), "fresh", rule)
	assert.Equal(t, 1, limiter.size())
}
