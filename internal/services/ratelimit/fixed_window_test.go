package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisFixedWindowLimiter_Validation(t *testing.T) {
	_, err := NewRedisFixedWindowLimiter("", "", "", 1, time.Minute)
	assert.Error(t, err, "redis addr is required")

	_, err = NewRedisFixedWindowLimiter("localhost:6379", "", "", 0, time.Minute)
	assert.Error(t, err)

	_, err = NewRedisFixedWindowLimiter("localhost:6379", "", "", 1, 0)
	assert.Error(t, err)
}

func TestFixedWindowLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "", 2, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	now := time.Date(2026, 10, 14, 12, 0, 5, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, limiter.Ping(ctx))
	assert.True(t, limiter.Allow(ctx, "user:1"))
	assert.True(t, limiter.Allow(ctx, "user:1"))
	assert.False(t, limiter.Allow(ctx, "user:1"), "third request in the window is denied")

	// Keys are independent
	assert.True(t, limiter.Allow(ctx, "user:2"))

	// Next window starts a fresh count
	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow(ctx, "user:1"))
}

func TestFixedWindowLimiter_SetsExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "test", 5, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	assert.True(t, limiter.Allow(context.Background(), "ip:1.2.3.4"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:ip:1.2.3.4:")
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

func TestFixedWindowLimiter_FailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(mr.Addr(), "", "", 10, time.Minute)
	require.NoError(t, err)
	defer limiter.Close()

	mr.Close()
	assert.False(t, limiter.Allow(context.Background(), "user:1"))
}

func TestFixedWindowLimiter_NilDenies(t *testing.T) {
	var limiter *FixedWindowLimiter
	assert.False(t, limiter.Allow(context.Background(), "x"))
}
