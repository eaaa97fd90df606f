package model

import "time"

// 分析事件类型
const (
	EventSessionStarted   = "session_started"
	EventStepCompleted    = "step_completed"
	EventCrisisDetected   = "crisis_detected"
	EventSessionCompleted = "session_completed"
)

// AnalyticsEvent 分析事件 - 追踪会话状态变化，写入失败不影响主流程
type AnalyticsEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"index;size:36" json:"session_id,omitempty"`
	EventType string    `gorm:"size:100;not null" json:"event_type"`
	Payload   string    `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
