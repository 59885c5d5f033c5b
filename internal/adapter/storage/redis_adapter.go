package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idem:"
	otpKeyPrefix         = "otp:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// consumeOTPScript deletes the code only when it matches, so a code can be
// redeemed once even under concurrent verification. Misses are counted in
// the same hash and the code is dropped once they reach ARGV[2].
var consumeOTPScript = redis.NewScript(`
local key = KEYS[1]
local otp = ARGV[1]
local max_attempts = tonumber(ARGV[2])

local current = redis.call('HGET', key, 'code')
if not current then
	return 0
end

if current == otp then
	redis.call('DEL', key)
	return 1
end

local attempts = redis.call('HINCRBY', key, 'attempts', 1)
if attempts >= max_attempts then
	redis.call('DEL', key)
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) SaveOTP(ctx context.Context, email, otp string, ttl time.Duration) error {
	key := otpKeyPrefix + email
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", otp, "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *RedisAdapter) ConsumeOTP(ctx context.Context, email, otp string, maxAttempts int) (bool, error) {
	result, err := consumeOTPScript.Run(ctx, r.client, []string{otpKeyPrefix + email}, otp, maxAttempts).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}
