package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/restaurant-table-reservation/internal/config"
)

// bucketScript refills and takes one token atomically. It returns
// {allowed, tokens_left, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
  tokens = capacity
  last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
  tokens = math.min(capacity, tokens + intervals * refill_tokens)
  last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return {allowed, tokens, retry_ms}
`)

// Decision is the outcome of one bucket take.
type Decision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// TokenBucket is a Redis-backed token bucket shared by every replica.
type TokenBucket struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) *TokenBucket {
    return &TokenBucket{cfg: cfg, rdb: rdb}
}

// Take removes one token from key's bucket at now.
func (b *TokenBucket) Take(ctx context.Context, key string, now time.Time) (Decision, error) {
    vals, err := bucketScript.Run(ctx, b.rdb, []string{key},
        now.UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return Decision{}, err
    }
    if len(vals) != 3 {
        return Decision{}, fmt.Errorf("unexpected bucket reply %v", vals)
    }
    return Decision{
        Allowed:    vals[0] == 1,
        Remaining:  vals[1],
        RetryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// RateLimit throttles requests with the bucket. When the limiter is
// disabled or Redis is unavailable the middleware passes everything
// through; a Redis error on a single request fails open as well.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    bucket := NewTokenBucket(cfg, rdb)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            d, err := bucket.Take(c.Request().Context(), key, time.Now())
            if err != nil {
                log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if !d.Allowed {
                secs := int(math.Ceil(d.RetryAfter.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                log.Debug("rate limited", zap.String("key", key), zap.Duration("retry_after", d.RetryAfter))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := identityKey(c)
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
