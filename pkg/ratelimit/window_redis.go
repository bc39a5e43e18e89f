package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the sorted set holding admission timestamps.
const DefaultRedisKey = "gathercontent:throttle:admissions"

// reserveScript trims expired admissions, then either records a new one or
// returns the wait (in microseconds) until the oldest one expires.
// Scores are microseconds since the Unix epoch. Scores and the cutoff are
// passed as strings because Lua formats large numbers with %.14g.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[3])
local limit = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
if redis.call('ZCARD', key) < limit then
  redis.call('ZADD', key, ARGV[1], ARGV[5])
  redis.call('PEXPIRE', key, math.ceil(interval / 1000))
  return 0
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local wait = tonumber(oldest[2]) + interval - now
if wait < 1 then
  wait = 1
end
return wait
`)

// RedisWindow is a WindowStore shared by every process pointing at the
// same Redis key.
type RedisWindow struct {
	redis *redis.Client
	key   string
}

// NewRedisWindow creates a Redis-backed window. An empty key selects
// DefaultRedisKey.
func NewRedisWindow(redisClient *redis.Client, key string) *RedisWindow {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisWindow{
		redis: redisClient,
		key:   key,
	}
}

// Reserve implements WindowStore. The check and the insert run as one
// script, so concurrent processes cannot both take the last slot.
func (w *RedisWindow) Reserve(ctx context.Context, now time.Time, policy Policy) (time.Duration, error) {
	waitMicros, err := reserveScript.Run(ctx, w.redis, []string{w.key},
		strconv.FormatInt(now.UnixMicro(), 10),
		strconv.FormatInt(now.Add(-policy.Interval).UnixMicro(), 10),
		policy.Interval.Microseconds(),
		policy.Limit,
		uuid.NewString(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis reserve: %w", err)
	}

	return time.Duration(waitMicros) * time.Microsecond, nil
}

// Reset drops all recorded admissions.
func (w *RedisWindow) Reset(ctx context.Context) error {
	if err := w.redis.Del(ctx, w.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
