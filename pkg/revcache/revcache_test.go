package revcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_MarkAndCheck(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	revoked, err := c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.MarkRevoked(ctx, "jti-1", time.Minute))
	revoked, err = c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestCache_NonPositiveTTLSkipped(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.MarkRevoked(context.Background(), "jti-2", 0))
	assert.False(t, mr.Exists(keyPrefix+"jti-2"))
}

func TestNew_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Addr: "127.0.0.1:1"})
	require.Error(t, err)
}

func TestCache_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	mr.Close()

	_, err := c.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}
