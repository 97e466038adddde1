package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOTPStore(t *testing.T) (*RedisOTPStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisOTPStore(client), mr
}

func TestRedisOTPStore_Cooldown(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()

	ok, _, err := store.AcquireCooldown(ctx, "forgot-username:9876543210", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, remaining, err := store.AcquireCooldown(ctx, "forgot-username:9876543210", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, time.Minute)

	require.NoError(t, store.ReleaseCooldown(ctx, "forgot-username:9876543210"))
	assert.False(t, mr.Exists("otp-cooldown:forgot-username:9876543210"))

	ok, _, err = store.AcquireCooldown(ctx, "forgot-username:9876543210", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisOTPStore_CooldownExpires(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()

	ok, _, err := store.AcquireCooldown(ctx, "validate-user:9876543210", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(61 * time.Second)
	ok, _, err = store.AcquireCooldown(ctx, "validate-user:9876543210", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisOTPStore_ClaimAttemptCounts(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()
	key := "reset-password:9876543210"

	require.NoError(t, store.SaveCode(ctx, key, "hash-1", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL("otp:"+key))

	for want := 1; want <= 3; want++ {
		rec, err := store.ClaimAttempt(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "hash-1", rec.CodeHash)
		assert.Equal(t, want, rec.Attempts)
	}

	// a fresh code resets the count
	require.NoError(t, store.SaveCode(ctx, key, "hash-2", 10*time.Minute))
	rec, err := store.ClaimAttempt(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "hash-2", rec.CodeHash)
	assert.Equal(t, 1, rec.Attempts)
}

func TestRedisOTPStore_ClaimAttemptOnMissingCode(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()

	rec, err := store.ClaimAttempt(ctx, "forgot-username:asha@example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, mr.Exists("otp:forgot-username:asha@example.com"), "claiming must not create the key")
}

func TestRedisOTPStore_ExpiredCodeStaysGone(t *testing.T) {
	store, mr := newTestOTPStore(t)
	ctx := context.Background()
	key := "validate-user:9876543210"

	require.NoError(t, store.SaveCode(ctx, key, "hash", time.Minute))
	mr.FastForward(2 * time.Minute)

	rec, err := store.ClaimAttempt(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, mr.Exists("otp:"+key))
}

func TestRedisOTPStore_DeleteCodeIsSingleUse(t *testing.T) {
	store, _ := newTestOTPStore(t)
	ctx := context.Background()
	key := "forgot-username:9876543210"

	require.NoError(t, store.SaveCode(ctx, key, "hash", time.Minute))

	removed, err := store.DeleteCode(ctx, key)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteCode(ctx, key)
	require.NoError(t, err)
	assert.False(t, removed)
}
