package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/events"
	"github.com/xiebiao/bookshop/internal/infrastructure/logging"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/mq"
)

// 需要从Config中取参数的依赖，main.go和wire.go共用

func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, logging.Named(logger, "mysql"))
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

func provideRedis(cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout+cfg.Redis.ReadTimeout)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg, logging.Named(logger, "redis"))
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideUserService(repo user.Repository, cfg *config.Config) user.Service {
	return user.NewService(repo, cfg.JWT.BcryptCost)
}

func providePromotionService(repo promotion.Repository, cfg *config.Config) (promotion.Service, error) {
	loc, err := cfg.Promotion.Location()
	if err != nil {
		return nil, fmt.Errorf("促销时区配置错误: %w", err)
	}
	return promotion.NewService(repo, promotion.Options{
		ClampFixed: cfg.Promotion.ClampFixedDiscount,
		Location:   loc,
	}), nil
}

func provideIdempotencyStore(client *goredis.Client, cfg *config.Config) apporder.IdempotencyStore {
	return redis.NewIdempotencyStore(client, cfg.Order.IdempotencyTTL)
}

// providePublisher mq.enabled为false时只记日志
func providePublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, func(), error) {
	log := logging.Named(logger, "events")
	if !cfg.MQ.Enabled {
		return events.NewNopPublisher(log), func() {}, nil
	}

	sender, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := sender.Close(); err != nil {
			log.Warn("关闭MQ连接失败", zap.Error(err))
		}
	}
	return events.NewMQPublisher(sender, log), cleanup, nil
}

func provideEngine(cfg *config.Config, logger *zap.Logger, handlers router.Handlers, auth *middleware.AuthMiddleware) (*gin.Engine, error) {
	if err := router.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("注册校验规则失败: %w", err)
	}
	return router.New(router.Options{
		Mode:    cfg.Server.Mode,
		Swagger: cfg.Server.Mode != gin.ReleaseMode,
	}, logging.Named(logger, "http"), handlers, auth), nil
}
