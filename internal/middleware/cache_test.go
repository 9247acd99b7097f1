package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/eventhub/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}, "X-Total": {"8"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"success":true}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, hdr, got)
	assert.Equal(t, `{"success":true}`, string(body))
}

func TestDecodePayload_Corrupt(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 1})
	assert.False(t, ok)

	// Header length pointing past the end.
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0, '{'})
	assert.False(t, ok)
}

func TestCacheKeyFrom(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache:events", KeyStrategy: "route_query"}
	a := httptest.NewRequest(http.MethodGet, "/v1/events?city=Austin", nil)
	b := httptest.NewRequest(http.MethodGet, "/v1/events?city=Boston", nil)

	ka := cacheKeyFrom(cfg, a, "/v1/events")
	assert.True(t, strings.HasPrefix(ka, "cache:events:"))
	assert.Equal(t, ka, cacheKeyFrom(cfg, a, "/v1/events"), "stable")
	assert.NotEqual(t, ka, cacheKeyFrom(cfg, b, "/v1/events"), "query is part of the key")

	cfg.KeyStrategy = "route"
	assert.Equal(t, cacheKeyFrom(cfg, a, "/v1/events"), cacheKeyFrom(cfg, b, "/v1/events"))
}

func TestCaptureWriter_Truncates(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = cw.Write([]byte("defg"))
	require.NoError(t, err)

	assert.Equal(t, "abcd", cw.buf.String())
	assert.EqualValues(t, 7, cw.size)
	assert.Equal(t, "abcdefg", rec.Body.String(), "the client still gets everything")
}

func TestRedisCache_WithoutClientPassesThrough(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "cache:events"}
	e := echo.New()
	e.GET("/v1/events", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") }, NewRedisCache(cfg, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))

	// A disabled invalidator is nil and still safe to call.
	inv := NewCacheInvalidator(cfg, nil, zap.NewNop())
	assert.Nil(t, inv)
	assert.NotPanics(t, func() { inv.Purge(context.Background()) })
}
