package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/MicroblogGo/internal/cache"
	redisstore "github.com/utafrali/MicroblogGo/internal/cache/redis"
)

func setup(t *testing.T) (*cache.VerificationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewVerificationCache(redisstore.NewStore(client), 0), mr
}

func TestVerificationCache_Keys(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, c.SetVerified(ctx, "u1", false))
	require.NoError(t, c.SetRequestedAt(ctx, "u1", time.UnixMilli(1700000000123)))
	require.NoError(t, c.SetCode(ctx, "u1", "ABC123"))

	v, err := mr.Get("verification:u1:isVerified")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	v, err = mr.Get("verification:u1:requestedAt")
	require.NoError(t, err)
	assert.Equal(t, "1700000000123", v)

	v, err = mr.Get("verification:u1:code")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", v)

	for _, k := range []string{"verification:u1:isVerified", "verification:u1:requestedAt", "verification:u1:code"} {
		assert.Equal(t, 24*time.Hour, mr.TTL(k), k)
	}
}

func TestVerificationCache_IsVerified(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()

	_, found, err := c.IsVerified(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetVerified(ctx, "u1", true))
	verified, found, err := c.IsVerified(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, verified)

	require.NoError(t, mr.Set("verification:u1:isVerified", "yes"))
	_, found, err = c.IsVerified(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found, "garbage counts as absent")
}

func TestVerificationCache_RequestedAt(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()

	at := time.UnixMilli(1700000000123)
	require.NoError(t, c.SetRequestedAt(ctx, "u1", at))

	got, found, err := c.RequestedAt(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, at.Equal(got))

	require.NoError(t, mr.Set("verification:u1:requestedAt", "soon"))
	_, found, err = c.RequestedAt(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestVerificationCache_CodeLifecycle(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, c.SetCode(ctx, "u1", "xyz789"))
	code, found, err := c.Code(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "xyz789", code)

	require.NoError(t, c.DeleteCode(ctx, "u1"))
	_, found, err = c.Code(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestVerificationCache_KeysExpireIndependently(t *testing.T) {
	c, mr := setup(t)
	ctx := context.Background()

	require.NoError(t, c.SetCode(ctx, "u1", "AAAAAA"))
	mr.FastForward(12 * time.Hour)
	require.NoError(t, c.SetVerified(ctx, "u1", false))
	mr.FastForward(13 * time.Hour)

	_, found, err := c.Code(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = c.IsVerified(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestNewVerificationCache_CustomTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := cache.NewVerificationCache(redisstore.NewStore(client), time.Hour)
	require.NoError(t, c.SetCode(context.Background(), "u1", "AAAAAA"))
	assert.Equal(t, time.Hour, mr.TTL("verification:u1:code"))
}
