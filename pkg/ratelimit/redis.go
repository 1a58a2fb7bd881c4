package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// acquireScript admits a request into a redis sliding window atomically.
// Returns -1 when admitted, otherwise the milliseconds until the oldest
// entry leaves the window.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return -1
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return (tonumber(oldest[2]) + window) - now
`)

// RedisBudget is a Budget backed by a redis sliding window, for deployments
// running several extraction processes against the same API key. All
// processes pointing at the same key share one ceiling.
type RedisBudget struct {
	redis  *redis.Client
	key    string
	limit  int
	window time.Duration
	logger zerolog.Logger
}

// NewRedisBudget creates a redis-backed budget. The key should be derived
// from the API ID so distinct credentials get distinct windows.
func NewRedisBudget(redisClient *redis.Client, key string, limit int, window time.Duration, logger zerolog.Logger) (*RedisBudget, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		return nil, fmt.Errorf("budget key is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive (got %d)", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive (got %v)", window)
	}
	return &RedisBudget{
		redis:  redisClient,
		key:    "aktiva:rate_budget:" + key,
		limit:  limit,
		window: window,
		logger: logger,
	}, nil
}

// Acquire implements Budget.
func (b *RedisBudget) Acquire(ctx context.Context) error {
	waited := false
	start := time.Now()

	for {
		now := time.Now().UnixMilli()
		member := fmt.Sprintf("%d-%s", now, uuid.NewString())

		res, err := acquireScript.Run(ctx, b.redis,
			[]string{b.key},
			now, b.window.Milliseconds(), b.limit, member,
		).Int64()
		if err != nil {
			return fmt.Errorf("redis rate budget: %w", err)
		}

		if res < 0 {
			if waited {
				budgetWaitSeconds.Observe(time.Since(start).Seconds())
			}
			return nil
		}

		delay := time.Duration(res) * time.Millisecond
		if !waited {
			waited = true
			budgetWaitsTotal.Inc()
			b.logger.Debug().
				Dur("delay", delay).
				Str("key", b.key).
				Msg("Shared rate budget exhausted - suspending")
		}

		if err := sleepContext(ctx, delay); err != nil {
			return fmt.Errorf("rate budget wait: %w", err)
		}
	}
}

// InWindow returns the number of requests currently inside the shared window.
func (b *RedisBudget) InWindow(ctx context.Context) (int, error) {
	now := time.Now().UnixMilli()
	pipe := b.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, b.key, "-inf", fmt.Sprintf("%d", now-b.window.Milliseconds()))
	card := pipe.ZCard(ctx, b.key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis rate budget: %w", err)
	}
	return int(card.Val()), nil
}
