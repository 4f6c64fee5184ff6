package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "library:cache:"

// RecommendationCache 推荐结果缓存
// 缓存只是加速,读写失败都降级为未命中,不影响查询本身
// nil接收者表示关闭缓存
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRecommendationCache 创建推荐缓存
func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecommendationCache{client: client, ttl: ttl}
}

// Get 命中时把JSON解码到dest并返回true
func (c *RecommendationCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	data, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "recommendation cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		slog.WarnContext(ctx, "recommendation cache decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Set 写入缓存,失败只记日志
func (c *RecommendationCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "recommendation cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "recommendation cache set failed", "key", key, "error", err)
	}
}
