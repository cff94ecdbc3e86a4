package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/asset-management/internal/config"
)

const frontend = "http://localhost:3000"

func withRedis(t *testing.T) func(*Deps) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return func(d *Deps) {
		d.Redis = rdb
		d.RateLimit = config.RateLimitConfig{
			Enabled:        true,
			Capacity:       100,
			RefillTokens:   1,
			RefillInterval: time.Minute,
			TTL:            10 * time.Minute,
			KeyStrategy:    "ip_route",
			Prefix:         "rl",
		}
		d.Cache = config.CacheConfig{
			Enabled:      true,
			Methods:      map[string]bool{http.MethodGet: true},
			TTL:          time.Minute,
			KeyStrategy:  "route_query",
			Prefix:       "cache",
			MaxBodyBytes: 1 << 20,
		}
	}
}

func (s *apiServer) browserGet(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderOrigin, frontend)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestCatalogCacheKeepsPerRequestHeaders(t *testing.T) {
	s := newAPI(t, withRedis(t))
	_, boss := s.signup("Boss", "boss@x.com", "company")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/services", boss, map[string]any{"service_name": "Cleaning"}).Code)

	first := s.browserGet("/services")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := s.browserGet("/services")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.True(t, strings.HasPrefix(second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))

	assert.Equal(t, []string{frontend}, second.Header().Values(echo.HeaderAccessControlAllowOrigin))
	assert.Len(t, second.Header().Values(echo.HeaderVary), 1)
	assert.Len(t, second.Header().Values(echo.HeaderXRequestID), 1)
	assert.NotEqual(t, first.Header().Get(echo.HeaderXRequestID), second.Header().Get(echo.HeaderXRequestID))

	remaining := second.Header().Values("X-RateLimit-Remaining")
	require.Len(t, remaining, 1)
	assert.NotEqual(t, first.Header().Get("X-RateLimit-Remaining"), remaining[0])
}

func TestCatalogCachePurgedOnCreate(t *testing.T) {
	s := newAPI(t, withRedis(t))
	_, boss := s.signup("Boss", "boss@x.com", "company")

	assert.Equal(t, "MISS", s.browserGet("/services").Header().Get("X-Cache"))
	cached := s.browserGet("/services")
	assert.Equal(t, "HIT", cached.Header().Get("X-Cache"))
	assert.JSONEq(t, `[]`, cached.Body.String())

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/services", boss, map[string]any{"service_name": "Audit"}).Code)

	fresh := s.browserGet("/services")
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))
	assert.Contains(t, fresh.Body.String(), "Audit")
}

func TestRateLimitAcrossRoutes(t *testing.T) {
	s := newAPI(t, withRedis(t), func(d *Deps) { d.RateLimit.Capacity = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
	}
	res := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "60", res.Header.Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded", res.object(t)["error"])

	// ip_route keys give every route its own bucket
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/services", "", nil).Code)
}
