package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/solacore/solve-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageRepository 用量账本数据访问
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository 创建用量仓库
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// GetOrCreate 获取当前周期的用量行，不存在则创建
// 唯一约束 (user_id, period_start) + DO NOTHING 保证并发下不会重复建行
func (r *UsageRepository) GetOrCreate(userID string, periodStart time.Time) (*model.Usage, error) {
	return getOrCreateUsage(r.db, userID, periodStart)
}

// GetSubscriptionByUserID 获取用户订阅，不存在返回 nil
func (r *UsageRepository) GetSubscriptionByUserID(userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription 创建订阅（默认 free）
// user_id 唯一约束 + DO NOTHING：并发首次请求只有一个写入生效，调用方重读取胜者
func (r *UsageRepository) CreateSubscription(sub *model.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(sub).Error
}

func getOrCreateUsage(tx *gorm.DB, userID string, periodStart time.Time) (*model.Usage, error) {
	row := &model.Usage{
		ID:          uuid.NewString(),
		UserID:      userID,
		PeriodStart: periodStart,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "period_start"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, err
	}

	var usage model.Usage
	if err := tx.Where("user_id = ? AND period_start = ?", userID, periodStart).
		First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

// incrementIfUnderLimit 条件自增：limit 为 0 表示不限
// 返回是否成功占用一个名额，配额判定和自增在同一条 UPDATE 中完成
func incrementIfUnderLimit(tx *gorm.DB, userID string, periodStart time.Time, limit int) (bool, error) {
	result := tx.Model(&model.Usage{}).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		Where("? = 0 OR session_count < ?", limit, limit).
		Update("session_count", gorm.Expr("session_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
