package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/complaint-tracker/internal/apperr"
    "github.com/iliyamo/complaint-tracker/internal/config"
    "github.com/iliyamo/complaint-tracker/internal/model"
    "github.com/iliyamo/complaint-tracker/internal/utils"
)

func newTokens(t *testing.T, now time.Time) *utils.TokenManager {
    t.Helper()
    m, err := utils.NewTokenManager("middleware-test-secret-0123456789", 0)
    require.NoError(t, err)
    return m.WithClock(func() time.Time { return now })
}

func newContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/complaints", nil)
    if authHeader != "" {
        req.Header.Set(echo.HeaderAuthorization, authHeader)
    }
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

func requireErr(t *testing.T, err error, kind apperr.Kind, code string) {
    t.Helper()
    require.Error(t, err)
    ae, ok := err.(*apperr.Error)
    require.True(t, ok, "want *apperr.Error, got %T", err)
    assert.Equal(t, kind, ae.Kind)
    if code != "" {
        assert.Equal(t, code, ae.Code)
    }
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
    now := time.Now()
    tokens := newTokens(t, now)
    tok, err := tokens.Issue("7", model.RoleCitizen)
    require.NoError(t, err)

    for _, header := range []string{"Bearer " + tok.Token, "bearer " + tok.Token, "BEARER  " + tok.Token} {
        c, rec := newContext(header)
        require.NoError(t, JWTAuth(tokens)(okHandler)(c), header)
        assert.Equal(t, http.StatusNoContent, rec.Code)

        claims, ok := ClaimsFrom(c)
        require.True(t, ok)
        assert.Equal(t, "7", claims.UserID)
        assert.Equal(t, "7", c.Get("user_id"))
        assert.Equal(t, "citizen", c.Get("role"))
    }
}

func TestJWTAuthRejectsMissingOrMalformedHeader(t *testing.T) {
    tokens := newTokens(t, time.Now())
    for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "Token abc"} {
        c, _ := newContext(header)
        called := false
        err := JWTAuth(tokens)(func(echo.Context) error { called = true; return nil })(c)
        requireErr(t, err, apperr.KindUnauthenticated, "unauthenticated")
        assert.Equal(t, "missing or invalid token", err.(*apperr.Error).Message)
        assert.False(t, called, header)
    }
}

func TestJWTAuthPropagatesVerifyFailures(t *testing.T) {
    issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    tok, err := newTokens(t, issued).Issue("7", model.RoleAdmin)
    require.NoError(t, err)

    later := newTokens(t, issued.Add(25*time.Hour))
    c, _ := newContext("Bearer " + tok.Token)
    requireErr(t, JWTAuth(later)(okHandler)(c), apperr.KindUnauthenticated, apperr.CodeTokenExpired)

    c, _ = newContext("Bearer not.a.jwt")
    requireErr(t, JWTAuth(later)(okHandler)(c), apperr.KindUnauthenticated, apperr.CodeTokenInvalid)
}

func TestRequireRole(t *testing.T) {
    tokens := newTokens(t, time.Now())
    adminOnly := func(c echo.Context) error {
        return JWTAuth(tokens)(RequireRole(model.RoleAdmin)(okHandler))(c)
    }

    admin, err := tokens.Issue("1", model.RoleAdmin)
    require.NoError(t, err)
    c, rec := newContext("Bearer " + admin.Token)
    require.NoError(t, adminOnly(c))
    assert.Equal(t, http.StatusNoContent, rec.Code)

    citizen, err := tokens.Issue("2", model.RoleCitizen)
    require.NoError(t, err)
    c, _ = newContext("Bearer " + citizen.Token)
    err = adminOnly(c)
    requireErr(t, err, apperr.KindForbidden, "forbidden")
    assert.Equal(t, "insufficient privilege", err.(*apperr.Error).Message)

    // Without JWTAuth in front there are no claims to check.
    c, _ = newContext("")
    requireErr(t, RequireRole(model.RoleAdmin)(okHandler)(c), apperr.KindUnauthenticated, "")
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    cfg := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       2,
        RefillTokens:   1,
        RefillInterval: time.Minute,
        TTL:            10 * time.Minute,
        KeyStrategy:    "ip_route",
        Prefix:         "rl-test",
    }
    e := echo.New()
    e.POST("/login", okHandler, NewTokenBucket(cfg, rdb, nil))

    codes := make([]int, 0, 3)
    var last *httptest.ResponseRecorder
    for i := 0; i < 3; i++ {
        req := httptest.NewRequest(http.MethodPost, "/login", nil)
        req.RemoteAddr = "203.0.113.9:5555"
        last = httptest.NewRecorder()
        e.ServeHTTP(last, req)
        codes = append(codes, last.Code)
    }
    assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
    assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
    assert.NotEmpty(t, last.Header().Get("Retry-After"))
    assert.Contains(t, last.Body.String(), "too_many_requests")

    // Another client has its own bucket.
    req := httptest.NewRequest(http.MethodPost, "/login", nil)
    req.RemoteAddr = "198.51.100.4:5555"
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTokenBucketKeysByClientAddress(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })

    for _, strategy := range []string{"user", "ip_user", "user_route", "route", ""} {
        mr.FlushAll()
        cfg := config.RateLimitConfig{
            Enabled:        true,
            Capacity:       2,
            RefillTokens:   1,
            RefillInterval: time.Minute,
            TTL:            10 * time.Minute,
            KeyStrategy:    strategy,
            Prefix:         "rl",
        }
        e := echo.New()
        e.POST("/login", okHandler, NewTokenBucket(cfg, rdb, nil))

        send := func(addr string) int {
            req := httptest.NewRequest(http.MethodPost, "/login", nil)
            req.RemoteAddr = addr
            rec := httptest.NewRecorder()
            e.ServeHTTP(rec, req)
            return rec.Code
        }
        assert.Equal(t, http.StatusNoContent, send("10.0.0.1:4000"), strategy)
        assert.Equal(t, http.StatusNoContent, send("10.0.0.1:4000"), strategy)
        assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:4000"), strategy)
        assert.Equal(t, http.StatusNoContent, send("10.0.0.2:4000"), strategy)

        assert.ElementsMatch(t, []string{
            "rl:ip:10.0.0.1:route:POST /login",
            "rl:ip:10.0.0.2:route:POST /login",
        }, mr.Keys(), strategy)
    }
}

func TestTokenBucketFailsOpen(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
    t.Cleanup(func() { _ = rdb.Close() })
    mr.Close()

    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Minute, Prefix: "rl"}
    e := echo.New()
    e.POST("/register", okHandler, NewTokenBucket(cfg, rdb, nil))

    for i := 0; i < 3; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))
        assert.Equal(t, http.StatusNoContent, rec.Code)
    }
}
