package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/writing-practice-api/internal/config"
)

// takeTokenScript refills a bucket by whole intervals, then tries to spend one
// token.  KEYS[1] is the bucket; ARGV is now_ms, capacity, refill, interval_ms,
// ttl_s.  It returns {allowed, remaining, retry_ms}.
var takeTokenScript = redis.NewScript(`
local now, cap, refill, step, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens, ts = tonumber(b[1]), tonumber(b[2])
if not tokens or not ts then
  tokens, ts = cap, now
end
local n = math.floor(math.max(0, now - ts) / step)
if n > 0 then
  tokens = math.min(cap, tokens + n * refill)
  ts = ts + n * step
end
local ok, wait = 0, 0
if tokens >= 1 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, step - (now - ts))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tokens, wait}
`)

type bucketResult struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

type tokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log *charmlog.Logger
}

func (b *tokenBucket) take(ctx context.Context, key string, now time.Time) (bucketResult, error) {
	vals, err := takeTokenScript.Run(ctx, b.rdb, []string{key},
		now.UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, fmt.Errorf("ratelimit: script returned %d values", len(vals))
	}
	return bucketResult{
		allowed:    vals[0] == 1,
		remaining:  vals[1],
		retryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits requests per key with a token bucket kept in Redis.
// Refill and spend happen in one script, so concurrent requests on a key
// cannot overspend.  A Redis failure lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *charmlog.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := &tokenBucket{cfg: cfg, rdb: rdb, log: log}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := b.take(c.Request().Context(), key, time.Now())
			if err != nil {
				log.Warn("ratelimit: bucket unavailable", "key", key, "err", err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.allowed {
				return next(c)
			}

			secs := retrySeconds(res.retryAfter)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Info("ratelimit: blocked", "key", key, "retry", res.retryAfter)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"message":    "too many requests, try again later",
				"retryAfter": secs,
			})
		}
	}
}

// retrySeconds rounds up to whole seconds for the Retry-After header.
func retrySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// rateKey joins the components the strategy asks for, e.g. "rl:auth:ip:1.2.3.4".
// Unknown strategies key on ip, user and route together.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := map[string]string{
		"ip":    ip,
		"user":  currentUserKey(c),
		"route": c.Request().Method + " " + c.Path(),
	}

	var use []string
	switch s := strings.ToLower(cfg.KeyStrategy); s {
	case "ip", "user", "route":
		use = []string{s}
	case "ip_user", "ip_route", "user_route":
		use = strings.SplitN(s, "_", 2)
	default:
		use = []string{"ip", "user", "route"}
	}

	key := []string{cfg.Prefix}
	for _, name := range use {
		key = append(key, name, parts[name])
	}
	return strings.Join(key, ":")
}
