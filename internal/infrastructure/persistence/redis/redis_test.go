package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore_RevokeToken(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.RevokeToken(ctx, "token-a", time.Minute))
	revoked, err = store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	// 剩余有效期过后自动移出黑名单
	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	// 已过期的Token不记录
	require.NoError(t, store.RevokeToken(ctx, "token-b", 0))
	assert.False(t, mr.Exists(revokedKeyPrefix+"token-b"))
}

func TestSessionStore_RedisDown(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewSessionStore(client)
	mr.Close()

	_, err := store.IsRevoked(context.Background(), "token")
	assert.Error(t, err)
}

type cachedBook struct {
	ID    uint    `json:"id"`
	Score float64 `json:"score"`
}

func TestRecommendationCache(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewRecommendationCache(client, time.Minute)
	ctx := context.Background()

	var got []cachedBook
	assert.False(t, cache.Get(ctx, "trending:7:10", &got))

	want := []cachedBook{{ID: 1, Score: 4.5}, {ID: 2, Score: 3}}
	cache.Set(ctx, "trending:7:10", want)
	require.True(t, cache.Get(ctx, "trending:7:10", &got))
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Minute)
	assert.False(t, cache.Get(ctx, "trending:7:10", &got))
}

func TestRecommendationCache_NilIsDisabled(t *testing.T) {
	var cache *RecommendationCache
	ctx := context.Background()

	cache.Set(ctx, "k", 1)
	var v int
	assert.False(t, cache.Get(ctx, "k", &v))
}

func TestRecommendationCache_RedisDownIsMiss(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewRecommendationCache(client, time.Minute)
	mr.Close()

	var v int
	cache.Set(context.Background(), "k", 1)
	assert.False(t, cache.Get(context.Background(), "k", &v))
}
