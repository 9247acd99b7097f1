package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/eventhub/internal/config"
)

func limitedEcho(cfg config.RateLimitConfig) *echo.Echo {
	e := echo.New()
	e.Use(NewTokenBucket(cfg, nil, zap.NewNop()))
	e.GET("/events", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func fromIP(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket_LocalFallback(t *testing.T) {
	e := limitedEcho(config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl", LocalFallback: true,
	})

	assert.Equal(t, http.StatusOK, fromIP(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, fromIP(e, "10.0.0.1").Code)

	rec := fromIP(e, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		RetryAfter int    `json:"retry_after"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "rate limit exceeded", body.Error)
	assert.Greater(t, body.RetryAfter, 0)

	// Buckets are per key.
	assert.Equal(t, http.StatusOK, fromIP(e, "10.0.0.2").Code)
}

func TestTokenBucket_Disabled(t *testing.T) {
	e := limitedEcho(config.RateLimitConfig{Enabled: false, Capacity: 1, LocalFallback: true})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, fromIP(e, "10.0.0.1").Code)
	}

	// No Redis and no fallback means nothing to count with.
	e = limitedEcho(config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, fromIP(e, "10.0.0.1").Code)
	}
}

func TestLocalLimiter_Refills(t *testing.T) {
	l := newLocalLimiter(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ok, _, _ := l.allow("k", now)
	assert.True(t, ok)
	ok, _, wait := l.allow("k", now)
	assert.False(t, ok)
	assert.InDelta(t, time.Second, wait, float64(10*time.Millisecond))

	ok, _, _ = l.allow("k", now.Add(time.Second))
	assert.True(t, ok)
}

func TestLocalLimiter_SweepsIdleBuckets(t *testing.T) {
	l := newLocalLimiter(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l.allow("a", now)
	l.allow("b", now.Add(2*time.Minute))
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "b")
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/events")
	c.Set(CtxUserID, "u9")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:192.0.2.7", buildRateKey(cfg, c))
	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:u9:route:GET /v1/events", buildRateKey(cfg, c))
	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:192.0.2.7:user:u9:route:GET /v1/events", buildRateKey(cfg, c))
}
