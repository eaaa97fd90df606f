package service

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/solacore/solve-api/internal/config"
	"github.com/solacore/solve-api/internal/repository"
	"github.com/solacore/solve-api/internal/service/ai"
	"github.com/solacore/solve-api/internal/service/analytics"
	"github.com/solacore/solve-api/internal/service/auth"
	"github.com/solacore/solve-api/internal/service/device"
	"github.com/solacore/solve-api/internal/service/solve"
	"github.com/solacore/solve-api/internal/service/usage"
)

// Services 服务集合
type Services struct {
	Auth      *auth.Service
	Device    *device.Service
	Solve     *solve.Service
	Usage     *usage.Service
	Analytics *analytics.Service

	Config *config.Config
	Redis  *redis.Client
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 聊天模型缺配置时降级启动：非流式接口照常工作，
	// 流式对话统一返回 STREAM_ERROR
	aiSvc, err := ai.NewService(ctx, &cfg.AI)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
		aiSvc = nil
	}

	usageSvc := usage.NewService(repo.Usage, &cfg.Quota)
	analyticsSvc := analytics.NewService(repo.Analytics)

	return &Services{
		Auth:      auth.NewService(repo, &cfg.JWT),
		Device:    device.NewService(repo.Device),
		Solve:     solve.NewService(repo.Session, repo.Device, usageSvc, analyticsSvc, aiSvc),
		Usage:     usageSvc,
		Analytics: analyticsSvc,

		Config: cfg,
		Redis:  redisClient,
	}, nil
}
