package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/solacore/solve-api/internal/model"
	"gorm.io/gorm"
)

// SessionRepository 会话数据访问
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓库
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateWithQuota 在一个事务内占用配额并创建会话
// 配额判定与自增由同一条 UPDATE 完成，并发创建不会超发；
// 返回 false 表示本周期名额已用尽，事务回滚
func (r *SessionRepository) CreateWithQuota(session *model.SolveSession, periodStart time.Time, limit int) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := getOrCreateUsage(tx, session.UserID, periodStart); err != nil {
			return err
		}
		ok, err := incrementIfUnderLimit(tx, session.UserID, periodStart, limit)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		history := &model.StepHistory{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Step:      session.CurrentStep,
		}
		if err := tx.Create(history).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// GetByIDForUser 获取会话，限定属主
func (r *SessionRepository) GetByIDForUser(sessionID, userID string) (*model.SolveSession, error) {
	var session model.SolveSession
	err := r.db.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByUserID 列出用户的会话
func (r *SessionRepository) ListByUserID(userID string, offset, limit int) ([]*model.SolveSession, error) {
	var sessions []*model.SolveSession
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// Update 更新会话
func (r *SessionRepository) Update(session *model.SolveSession) error {
	return r.db.Save(session).Error
}

// GetActiveStepHistory 获取当前步骤未关闭的历史行
func (r *SessionRepository) GetActiveStepHistory(sessionID string, step model.Step) (*model.StepHistory, error) {
	var history model.StepHistory
	err := r.db.Where("session_id = ? AND step = ? AND completed_at IS NULL", sessionID, step).
		Order("started_at DESC").First(&history).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// RecordUserTurn 在流式生成前落库用户消息
// 单独事务提交，避免流式期间占用数据库连接
func (r *SessionRepository) RecordUserTurn(msg *model.Message, historyID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.StepHistory{}).Where("id = ?", historyID).
			Update("message_count", gorm.Expr("message_count + 1")).Error
	})
}

// CreateStepHistory 新开一个步骤历史行
func (r *SessionRepository) CreateStepHistory(history *model.StepHistory) error {
	return r.db.Create(history).Error
}

// TurnTransition 单轮收尾需要落库的内容
type TurnTransition struct {
	Session          *model.SolveSession
	HistoryID        string
	AssistantMessage *model.Message
	NextStep         model.Step // 终态轮为空
	Final            bool
}

// CompleteTurn 流式生成结束后，单事务内保存 AI 回复并推进步骤
// 事务内容：AI 消息 + 关闭当前步骤历史 + 开启下一步骤 + 会话步骤/状态更新
func (r *SessionRepository) CompleteTurn(t *TurnTransition) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t.AssistantMessage).Error; err != nil {
			return err
		}
		now := time.Now()
		if err := tx.Model(&model.StepHistory{}).Where("id = ?", t.HistoryID).
			Updates(map[string]interface{}{
				"completed_at":  &now,
				"message_count": gorm.Expr("message_count + 1"),
			}).Error; err != nil {
			return err
		}

		if t.Final {
			t.Session.Status = model.SessionStatusCompleted
			t.Session.CompletedAt = &now
			return tx.Save(t.Session).Error
		}

		next := &model.StepHistory{
			ID:        uuid.NewString(),
			SessionID: t.Session.ID,
			Step:      t.NextStep,
		}
		if err := tx.Create(next).Error; err != nil {
			return err
		}
		t.Session.CurrentStep = t.NextStep
		return tx.Save(t.Session).Error
	})
}

// CreateMessage 保存单条消息
func (r *SessionRepository) CreateMessage(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// ListMessages 获取会话全部消息，按时间正序
func (r *SessionRepository) ListMessages(sessionID string) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// GetRecentMessages 获取会话最近的 N 条消息，按时间正序返回
func (r *SessionRepository) GetRecentMessages(sessionID string, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 倒序查询取最近 N 条，再翻回正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
