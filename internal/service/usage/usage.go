// Package usage 订阅档位、计费周期与会话配额
package usage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solacore/solve-api/internal/config"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/repository"
)

// Service 用量服务
type Service struct {
	store repository.UsageStore
	cfg   *config.QuotaConfig
}

// NewService 创建用量服务
func NewService(store repository.UsageStore, cfg *config.QuotaConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// LimitForTier 返回档位配额，0 表示不限；未知档位按 free 处理
func (s *Service) LimitForTier(tier string) int {
	switch tier {
	case model.TierStandard:
		return s.cfg.Standard
	case model.TierPro:
		return s.cfg.Pro
	default:
		return s.cfg.Free
	}
}

// PeriodStart 计算订阅当前计费周期的起点：
// free 锚定订阅创建日（当天零点），付费档位用 current_period_start，
// 缺失时回退到当月一号
func PeriodStart(sub *model.Subscription, now time.Time) time.Time {
	if sub.Tier == model.TierFree {
		anchor := sub.CreatedAt
		if anchor.IsZero() {
			anchor = now
		}
		return time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	}
	if sub.CurrentPeriodStart != nil {
		return *sub.CurrentPeriodStart
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EnsureSubscription 获取用户订阅，没有则建一条 free
// 创建走 DO NOTHING，随后重读：并发首次请求都拿到同一条胜出的记录
func (s *Service) EnsureSubscription(userID string) (*model.Subscription, error) {
	sub, err := s.store.GetSubscriptionByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub != nil {
		return sub, nil
	}
	if err := s.store.CreateSubscription(&model.Subscription{
		ID:     uuid.NewString(),
		UserID: userID,
		Tier:   model.TierFree,
		Status: "active",
	}); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	sub, err = s.store.GetSubscriptionByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("subscription not found after create for user %s", userID)
	}
	return sub, nil
}

// Snapshot 当前周期的用量快照
type Snapshot struct {
	Tier          string    `json:"tier"`
	SessionsUsed  int       `json:"sessions_used"`
	SessionsLimit int       `json:"sessions_limit"`
	PeriodStart   time.Time `json:"period_start"`
}

// GetSnapshot 读取用户当前周期的配额使用情况
func (s *Service) GetSnapshot(userID string) (*Snapshot, error) {
	sub, err := s.EnsureSubscription(userID)
	if err != nil {
		return nil, err
	}
	periodStart := PeriodStart(sub, time.Now())
	row, err := s.store.GetOrCreate(userID, periodStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	return &Snapshot{
		Tier:          sub.Tier,
		SessionsUsed:  row.SessionCount,
		SessionsLimit: s.LimitForTier(sub.Tier),
		PeriodStart:   periodStart,
	}, nil
}
