package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

// ValkeyLimiter is a fixed-window limiter shared across instances through
// Valkey. A window admits max(Burst, Rate*window) requests per key. When
// Valkey is unreachable requests are let through.
type ValkeyLimiter struct {
	window time.Duration
	prefix string
	now    func() time.Time
	logger *zap.Logger
	incr   func(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func NewValkeyLimiter(client valkey.Client, window time.Duration, logger *zap.Logger) *ValkeyLimiter {
	l := newValkeyLimiter(window, logger)
	l.incr = func(ctx context.Context, key string, ttl time.Duration) (int64, error) {
		res := client.DoMulti(ctx,
			client.B().Incr().Key(key).Build(),
			client.B().Expire().Key(key).Seconds(int64(math.Ceil(ttl.Seconds()))).Build(),
		)
		if err := res[1].Error(); err != nil {
			return 0, err
		}
		return res[0].AsInt64()
	}
	return l
}

func newValkeyLimiter(window time.Duration, logger *zap.Logger) *ValkeyLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValkeyLimiter{window: window, prefix: "ratelimit:", now: time.Now, logger: logger}
}

func (l *ValkeyLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	limit := l.limit(rule)
	if limit <= 0 {
		return true, 0
	}
	now := l.now()
	windowStart := now.Truncate(l.window)
	bucket := l.prefix + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)
	count, err := l.incr(ctx, bucket, l.window)
	if err != nil {
		l.logger.Warn("rate limiter unavailable", zap.Error(err))
		return true, 0
	}
	if count <= limit {
		return true, 0
	}
	return false, windowStart.Add(l.window).Sub(now)
}

func (l *ValkeyLimiter) limit(rule RateLimitRule) int64 {
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return 0
	}
	perWindow := int64(math.Floor(rule.Rate * l.window.Seconds()))
	if perWindow < int64(rule.Burst) {
		return int64(rule.Burst)
	}
	return perWindow
}
