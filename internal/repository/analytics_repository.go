package repository

import (
	"github.com/solacore/solve-api/internal/model"
	"gorm.io/gorm"
)

// AnalyticsRepository 分析事件数据访问
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建分析事件仓库
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Create 写入事件
func (r *AnalyticsRepository) Create(event *model.AnalyticsEvent) error {
	return r.db.Create(event).Error
}

// ListBySessionID 列出会话的事件
func (r *AnalyticsRepository) ListBySessionID(sessionID string) ([]*model.AnalyticsEvent, error) {
	var events []*model.AnalyticsEvent
	err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&events).Error
	return events, err
}
