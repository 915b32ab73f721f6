package attempts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "saral:attempts:"

// Sliding window on a sorted set scored by unix milliseconds. Check and add
// run atomically in one script.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then first = tonumber(oldest[2]) end
return {allowed, count, first}
`)

// RedisStore shares the attempt window across instances.
type RedisStore struct {
	client *redis.Client
	clock  func() time.Time
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, clock: time.Now}
}

// Allow records the attempt only when it fits under limit.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := s.clock()
	vals, err := allowScript.Run(ctx, s.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("attempt window: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("attempt window: unexpected reply of %d values", len(vals))
	}
	return Result{
		Allowed: vals[0] == 1,
		Count:   int(vals[1]),
		Limit:   limit,
		ResetAt: time.UnixMilli(vals[2]).Add(window),
	}, nil
}

// Reset clears the window for key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
