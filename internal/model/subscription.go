package model

import "time"

// 订阅档位
const (
	TierFree     = "free"
	TierStandard = "standard"
	TierPro      = "pro"
)

// Subscription 订阅 - 计费由外部系统负责，这里只读快照
type Subscription struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	UserID               string     `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Tier                 string     `gorm:"size:50;default:free" json:"tier"` // free/standard/pro
	StripeCustomerID     string     `gorm:"size:255" json:"-"`
	StripeSubscriptionID string     `gorm:"size:255" json:"-"`
	Status               string     `gorm:"size:50;default:active" json:"status"` // active/canceled/past_due
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Subscription) TableName() string {
	return "subscriptions"
}

// Usage 用量账本 - (user_id, period_start) 唯一，防止并发重复建行
type Usage struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;not null;uniqueIndex:uq_usage_user_period" json:"user_id"`
	PeriodStart  time.Time `gorm:"not null;uniqueIndex:uq_usage_user_period" json:"period_start"`
	SessionCount int       `gorm:"default:0" json:"session_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Usage) TableName() string {
	return "usage"
}
