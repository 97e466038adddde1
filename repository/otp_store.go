package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRecord is a stored one-time code. Only the hash of the code is kept.
type OTPRecord struct {
	CodeHash string
	Attempts int
}

// RedisOTPStore keeps one-time codes and request cooldowns in Redis.
// Codes live under otp:<key> as a hash, cooldowns under otp-cooldown:<key>.
type RedisOTPStore struct {
	client redis.UniversalClient
}

// NewRedisOTPStore creates a Redis-backed OTP store
func NewRedisOTPStore(client redis.UniversalClient) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func codeKey(key string) string     { return "otp:" + key }
func cooldownKey(key string) string { return "otp-cooldown:" + key }

// AcquireCooldown claims the request window for key. When another request already holds it,
// ok is false and remaining is how long until a new code may be requested.
func (s *RedisOTPStore) AcquireCooldown(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	ok, err := s.client.SetNX(ctx, cooldownKey(key), "1", window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to acquire otp cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}
	remaining, err := s.client.PTTL(ctx, cooldownKey(key)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read otp cooldown: %w", err)
	}
	if remaining < 0 {
		remaining = 0
	}
	return false, remaining, nil
}

// ReleaseCooldown drops the request window, used when delivery failed
func (s *RedisOTPStore) ReleaseCooldown(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, cooldownKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release otp cooldown: %w", err)
	}
	return nil
}

// SaveCode stores a fresh code hash for key, replacing any earlier code and resetting attempts
func (s *RedisOTPStore) SaveCode(ctx context.Context, key, codeHash string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, codeKey(key))
		pipe.HSet(ctx, codeKey(key), "hash", codeHash, "attempts", 0)
		pipe.Expire(ctx, codeKey(key), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	return nil
}

// claimAttemptScript counts one verification attempt on a live code and returns its hash with
// the new count. A missing key yields nil and is never recreated, so an expired code cannot
// come back as a hash without a TTL.
var claimAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
local attempts = redis.call("HINCRBY", KEYS[1], "attempts", 1)
return {redis.call("HGET", KEYS[1], "hash"), attempts}
`)

// ClaimAttempt atomically counts one verification attempt against the code for key.
// The returned Attempts includes this attempt. Returns nil when no code is live.
func (s *RedisOTPStore) ClaimAttempt(ctx context.Context, key string) (*OTPRecord, error) {
	values, err := claimAttemptScript.Run(ctx, s.client, []string{codeKey(key)}).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim otp attempt: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("failed to claim otp attempt: unexpected reply %v", values)
	}
	hash, _ := values[0].(string)
	attempts, _ := values[1].(int64)
	return &OTPRecord{CodeHash: hash, Attempts: int(attempts)}, nil
}

// DeleteCode removes the code for key. removed is true only for the caller whose
// delete actually dropped the key, which makes consuming a code single use.
func (s *RedisOTPStore) DeleteCode(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, codeKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete otp: %w", err)
	}
	return n == 1, nil
}
