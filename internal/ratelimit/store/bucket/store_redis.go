package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"seqguard/internal/ratelimit"
)

// KeyPrefix namespaces rate limit keys in a shared Redis.
const KeyPrefix = "seqguard:ratelimit:"

// slidingWindowScript trims the window, admits cost members when they fit and
// returns {allowed, count, oldest_ms}. Scores are Unix milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local cost = tonumber(ARGV[3])
local limit = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count + cost <= limit then
  for i = 1, cost do
    redis.call('ZADD', key, now, member .. ':' .. i)
  end
  count = count + cost
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisStore implements ratelimit.Store on a Redis sorted set per key so
// every replica shares the same window.
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (ratelimit.Result, error) {
	now := s.now()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{KeyPrefix + key},
		now.UnixMilli(),
		window.Milliseconds(),
		cost,
		limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return ratelimit.Result{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 3 {
		return ratelimit.Result{}, fmt.Errorf("rate limit check: unexpected reply of %d values", len(res))
	}

	resetAt := time.UnixMilli(res[2]).Add(window)
	if res[0] == 1 {
		return ratelimit.Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: max(limit-int(res[1]), 0),
			ResetAt:   resetAt,
		}, nil
	}
	return ratelimit.Result{
		Allowed:    false,
		Limit:      limit,
		ResetAt:    resetAt,
		RetryAfter: max(resetAt.Sub(now), 0),
	}, nil
}
