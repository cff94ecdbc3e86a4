package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/asset-management/internal/apperror"
	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/repository"
	"github.com/iliyamo/asset-management/internal/utils"
)

const secret = "test-secret"

type fakeRoles map[uint64]string

func (f fakeRoles) RoleByID(_ context.Context, id uint64) (string, error) {
	r, ok := f[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return r, nil
}

type brokenRoles struct{}

func (brokenRoles) RoleByID(context.Context, uint64) (string, error) {
	return "", errors.New("db down")
}

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func bearer(t *testing.T, uid uint64, role string, ttl int) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, ttl)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, kind), "got %v", err)
}

func TestJWTAuth(t *testing.T) {
	roles := fakeRoles{1: "company", 2: "user"}
	mw := JWTAuth(secret, roles)

	t.Run("valid token uses stored role", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/profile")
		// claim says user, storage says company
		c.Request().Header.Set(echo.HeaderAuthorization, bearer(t, 1, "user", 5))
		require.NoError(t, mw(ok)(c))

		id, found := UserID(c)
		assert.True(t, found)
		assert.Equal(t, uint64(1), id)
		assert.Equal(t, "company", Role(c))
	})

	t.Run("rejections", func(t *testing.T) {
		cases := map[string]string{
			"missing header": "",
			"wrong scheme":   "Basic abc",
			"empty token":    "Bearer ",
			"garbage":        "Bearer not.a.jwt",
			"expired":        bearer(t, 2, "user", -1),
			"deleted user":   bearer(t, 99, "user", 5),
		}
		for name, header := range cases {
			t.Run(name, func(t *testing.T) {
				c, _ := newContext(http.MethodGet, "/profile")
				if header != "" {
					c.Request().Header.Set(echo.HeaderAuthorization, header)
				}
				assertKind(t, mw(ok)(c), apperror.KindUnauthenticated)
				_, found := UserID(c)
				assert.False(t, found)
			})
		}
	})

	t.Run("foreign secret", func(t *testing.T) {
		tok, err := utils.NewAccessToken("other-secret", 1, "company", 5)
		require.NoError(t, err)
		c, _ := newContext(http.MethodGet, "/profile")
		c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
		assertKind(t, mw(ok)(c), apperror.KindUnauthenticated)
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/profile")
		c.Request().Header.Set(echo.HeaderAuthorization, bearer(t, 1, "company", 5))
		assertKind(t, JWTAuth(secret, brokenRoles{})(ok)(c), apperror.KindInternal)
	})
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("company")

	c, rec := newContext(http.MethodPost, "/assets")
	c.Set(ctxRole, "company")
	require.NoError(t, mw(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(http.MethodPost, "/assets")
	c.Set(ctxRole, "user")
	assertKind(t, mw(ok)(c), apperror.KindForbidden)

	c, _ = newContext(http.MethodPost, "/assets")
	assertKind(t, mw(ok)(c), apperror.KindForbidden)
}

func TestRateKey(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/assets")
	c.SetPath("/assets")
	c.Request().Header.Set(echo.HeaderXRealIP, "10.0.0.1")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:10.0.0.1:user:anon:route:GET /assets", rateKey(cfg, c))

	c.Set(ctxUserID, uint64(7))
	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:7", rateKey(cfg, c))
	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:10.0.0.1:route:GET /assets", rateKey(cfg, c))
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(1))
	assert.Equal(t, 2, retryAfterSeconds(1500))
	assert.Equal(t, 0, retryAfterSeconds(-20))
}

func TestTokenBucketWithoutRedis(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, logrus.New())
	for i := 0; i < 3; i++ {
		c, rec := newContext(http.MethodGet, "/services")
		require.NoError(t, mw(ok)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if ae, ok := apperror.As(err); ok {
			_ = c.JSON(ae.Code, ae)
		}
	}
	mw := RequestLogger(log)

	req := httptest.NewRequest(http.MethodGet, "/maintenance/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/maintenance/:id")
	c.Set(ctxUserID, uint64(3))
	rec.Header().Set(echo.HeaderXRequestID, "req-1")

	err := mw(func(echo.Context) error {
		return apperror.NotFoundOrUnauthorized("record not found or not authorized")
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/maintenance/:id", entry.Data["route"])
	assert.Equal(t, "3", entry.Data["user"])
	assert.Equal(t, "req-1", entry.Data["request_id"])
}
