// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"time"

	"github.com/solacore/solve-api/internal/model"
)

// ========== SessionStore 接口 ==========

// SessionStore 会话数据访问接口
// 接口定义使 Service 层可以轻松 mock 进行单元测试
type SessionStore interface {
	CreateWithQuota(session *model.SolveSession, periodStart time.Time, limit int) (bool, error)
	GetByIDForUser(sessionID, userID string) (*model.SolveSession, error)
	ListByUserID(userID string, offset, limit int) ([]*model.SolveSession, error)
	Update(session *model.SolveSession) error

	GetActiveStepHistory(sessionID string, step model.Step) (*model.StepHistory, error)
	CreateStepHistory(history *model.StepHistory) error
	RecordUserTurn(msg *model.Message, historyID string) error
	CompleteTurn(t *TurnTransition) error

	CreateMessage(msg *model.Message) error
	ListMessages(sessionID string) ([]*model.Message, error)
	GetRecentMessages(sessionID string, limit int) ([]*model.Message, error)
}

var _ SessionStore = (*SessionRepository)(nil)

// ========== UsageStore 接口 ==========

// UsageStore 订阅与用量数据访问接口
type UsageStore interface {
	GetOrCreate(userID string, periodStart time.Time) (*model.Usage, error)
	GetSubscriptionByUserID(userID string) (*model.Subscription, error)
	CreateSubscription(sub *model.Subscription) error
}

var _ UsageStore = (*UsageRepository)(nil)

// ========== DeviceStore 接口 ==========

// DeviceStore 设备数据访问接口
type DeviceStore interface {
	Create(device *model.Device) error
	GetByFingerprint(userID, fingerprint string) (*model.Device, error)
	ListByUserID(userID string) ([]*model.Device, error)
	TouchLastActive(deviceID string) error
	Deactivate(deviceID, userID string) error
}

var _ DeviceStore = (*DeviceRepository)(nil)

// ========== AnalyticsStore 接口 ==========

// AnalyticsStore 分析事件写入接口
type AnalyticsStore interface {
	Create(event *model.AnalyticsEvent) error
}

var _ AnalyticsStore = (*AnalyticsRepository)(nil)
