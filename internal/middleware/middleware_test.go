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
    "go.uber.org/zap"

    "github.com/iliyamo/restaurant-table-reservation/internal/config"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, target, nil)
    for k, v := range header {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestRateLimit_BlocksAfterCapacity(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
        TTL: 10 * time.Minute, KeyStrategy: "ip", Prefix: "rl",
    }
    e := echo.New()
    e.POST("/book", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, RateLimit(cfg, rdb, zap.NewNop()))

    assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/book", nil).Code)
    rec := serve(e, http.MethodPost, "/book", nil)
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

    rec = serve(e, http.MethodPost, "/book", nil)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestTokenBucket_Refills(t *testing.T) {
    _, rdb := newRedis(t)
    b := NewTokenBucket(config.RateLimitConfig{Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}, rdb)
    ctx := t.Context()
    now := time.Now()

    d, err := b.Take(ctx, "k", now)
    require.NoError(t, err)
    assert.True(t, d.Allowed)

    d, err = b.Take(ctx, "k", now.Add(100*time.Millisecond))
    require.NoError(t, err)
    assert.False(t, d.Allowed)
    assert.Equal(t, 900*time.Millisecond, d.RetryAfter)

    d, err = b.Take(ctx, "k", now.Add(1100*time.Millisecond))
    require.NoError(t, err)
    assert.True(t, d.Allowed)
}

func TestRateLimit_FailsOpenWithoutRedis(t *testing.T) {
    mr, rdb := newRedis(t)
    mr.Close()
    cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Minute}
    e := echo.New()
    e.POST("/book", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, RateLimit(cfg, rdb, zap.NewNop()))

    for range 3 {
        assert.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/book", nil).Code)
    }
}

func TestResponseCache_HitOnSecondRead(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "c", MaxBodyBytes: 1 << 20}
    calls := 0
    e := echo.New()
    e.GET("/tables/:id", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
    }, ResponseCache(cfg, rdb, zap.NewNop()))

    first := serve(e, http.MethodGet, "/tables/1", nil)
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    second := serve(e, http.MethodGet, "/tables/1", nil)
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
    assert.Equal(t, 1, calls)

    other := serve(e, http.MethodGet, "/tables/2", nil)
    assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
    assert.Contains(t, other.Body.String(), `"2"`)

    serve(e, http.MethodGet, "/tables/1", map[string]string{echo.HeaderAuthorization: "Bearer x"})
    assert.Equal(t, 3, calls)
}

func TestResponseCache_SkipsErrors(t *testing.T) {
    _, rdb := newRedis(t)
    cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "c"}
    calls := 0
    e := echo.New()
    e.GET("/x", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"})
    }, ResponseCache(cfg, rdb, zap.NewNop()))

    serve(e, http.MethodGet, "/x", nil)
    serve(e, http.MethodGet, "/x", nil)
    assert.Equal(t, 2, calls)
}

func TestJWTAuthAndRequireRole(t *testing.T) {
    e := echo.New()
    var gotID uint64
    e.GET("/ops", func(c echo.Context) error {
        gotID, _ = UserID(c)
        return c.NoContent(http.StatusNoContent)
    }, JWTAuth("secret"), RequireRole(model.RoleOperator, model.RoleAdmin))

    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/ops", nil).Code)
    assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/ops", map[string]string{echo.HeaderAuthorization: "Bearer junk"}).Code)

    client, err := utils.NewAccessToken("secret", 7, model.RoleClient, time.Minute, time.Now())
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/ops", map[string]string{echo.HeaderAuthorization: "Bearer " + client.Token}).Code)

    op, err := utils.NewAccessToken("secret", 8, model.RoleOperator, time.Minute, time.Now())
    require.NoError(t, err)
    assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/ops", map[string]string{echo.HeaderAuthorization: "Bearer " + op.Token}).Code)
    assert.Equal(t, uint64(8), gotID)
}
