package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xiebiao/library/internal/application/recommendation"
	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/messaging"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	grpcserver "github.com/xiebiao/library/internal/interface/grpc"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/ratelimit"
)

// App 进程内需要启动和关闭的组件
type App struct {
	Config *config.Config
	Engine *gin.Engine
	GRPC   *grpcserver.Server
	DB     *gorm.DB
}

// provideDB 数据库连接,cleanup关闭连接池
func provideDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := gormstore.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// provideRedis Redis连接,cleanup关闭客户端
func provideRedis(cfg *config.Config) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideRecommendationCache 关闭缓存时返回nil接口
func provideRecommendationCache(cfg *config.Config, client *goredis.Client) recommendation.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return redis.NewRecommendationCache(client, cfg.Cache.RecommendationTTL)
}

// provideEventPublisher 未启用MQ时事件直接丢弃
// 启用时连接失败不阻止启动,降级为丢弃并记录日志
func provideEventPublisher(cfg *config.Config) (event.Publisher, func()) {
	if !cfg.MQ.Enabled {
		return event.NopPublisher{}, func() {}
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, mq.ExchangeTopic)
	if err != nil {
		slog.Error("rabbitmq unavailable, domain events disabled", "error", err)
		return event.NopPublisher{}, func() {}
	}
	return messaging.NewEventPublisher(publisher), func() { _ = publisher.Close() }
}

// provideRateLimiter 关闭限流时返回nil,中间件对nil不做限制
func provideRateLimiter(cfg *config.Config) (*ratelimit.KeyedRateLimiter, func()) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}
	}
	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	return limiter, limiter.Stop
}
