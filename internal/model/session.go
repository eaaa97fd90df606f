package model

import "time"

// 会话状态
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// SolveSession 引导式问题解决会话
type SolveSession struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"index;size:36;not null" json:"user_id"`
	DeviceID        string     `gorm:"index;size:36" json:"device_id,omitempty"`
	Status          string     `gorm:"index;size:50;default:active" json:"status"`
	CurrentStep     Step       `gorm:"size:50;default:receive" json:"current_step"`
	Locale          string     `gorm:"size:10;default:en" json:"locale"`
	FirstStepAction string     `gorm:"type:text" json:"first_step_action,omitempty"`
	ReminderTime    *time.Time `json:"reminder_time,omitempty"`
	ReminderSent    bool       `gorm:"default:false" json:"reminder_sent"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Messages        []Message  `gorm:"foreignKey:SessionID" json:"-"`
}

// TableName 指定表名
func (SolveSession) TableName() string {
	return "solve_sessions"
}

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 会话消息
type Message struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SessionID string `gorm:"index;size:36;not null" json:"session_id"`
	Role      string `gorm:"size:20;not null" json:"role"` // user, assistant
	Content   string `gorm:"type:text;not null" json:"content"`
	Step      Step   `gorm:"size:50" json:"step"` // 消息所属步骤
	// Excluded 标记仅留档的消息（危机触发消息），永不进入模型上下文
	Excluded  bool      `gorm:"default:false" json:"excluded,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}

// StepHistory 步骤历史 - 记录每个步骤的开始/结束时间和消息数
type StepHistory struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	SessionID    string     `gorm:"index;size:36;not null" json:"session_id"`
	Step         Step       `gorm:"size:50;not null" json:"step"`
	StartedAt    time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	MessageCount int        `gorm:"default:0" json:"message_count"`
}

// TableName 指定表名
func (StepHistory) TableName() string {
	return "step_history"
}
