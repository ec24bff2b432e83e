package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/birkolabs/vitrin/internal/config"
)

// Result describes the outcome of one limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Limiter applies a sliding-window request limit per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// NewLimiter selects the configured backend: an in-process window by
// default, redis sorted sets when the limiter must be shared across
// processes.
func NewLimiter(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Limiter, error) {
	switch cfg.RateLimit.Driver {
	case "memory":
		return newMemoryLimiter(cfg.RateLimit), nil
	case "redis":
		return newRedisLimiter(lc, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported rate limit driver: %s", cfg.RateLimit.Driver)
	}
}

// memoryLimiter keeps per-key timestamp windows in process memory.
type memoryLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string][]time.Time
}

func newMemoryLimiter(cfg config.RateLimit) *memoryLimiter {
	return &memoryLimiter{
		limit:   cfg.Limit,
		window:  cfg.Window,
		buckets: make(map[string][]time.Time),
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (*Result, error) {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.buckets[key]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.buckets[key] = kept
		return &Result{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   kept[0].Add(l.window),
			Limit:     l.limit,
		}, nil
	}

	kept = append(kept, now)
	l.buckets[key] = kept
	return &Result{
		Allowed:   true,
		Remaining: l.limit - len(kept),
		ResetAt:   now.Add(l.window),
		Limit:     l.limit,
	}, nil
}

// redisLimiter implements the same sliding window over a redis sorted
// set, atomically via a Lua script so concurrent checks can't race.
type redisLimiter struct {
	client *goredis.Client
	limit  int
	window time.Duration
	prefix string
}

var slidingWindowScript = goredis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':counter', expire_seconds)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = 0
	if oldest and #oldest >= 2 then
		reset_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, reset_at}
`)

func newRedisLimiter(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*redisLimiter, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis for rate limiter: %w", err)
			}
			logger.Info("redis rate limiter connected", zap.String("addr", cfg.Cache.Redis.Addr))
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return &redisLimiter{
		client: client,
		limit:  cfg.RateLimit.Limit,
		window: cfg.RateLimit.Window,
		prefix: "ratelimit:",
	}, nil
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.prefix + key},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply length: %d", len(res))
	}

	resetAt := now.Add(l.window)
	if res[2] > 0 {
		resetAt = time.UnixMilli(res[2])
	}
	return &Result{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   resetAt,
		Limit:     l.limit,
	}, nil
}
