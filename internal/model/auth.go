package model

import "time"

// User 用户 - 支持邮箱和 OAuth 账号
type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Email          string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255" json:"-"` // OAuth 用户为空
	AuthProvider   string    `gorm:"size:50;default:email" json:"auth_provider"` // email/google/apple
	AuthProviderID string    `gorm:"size:255" json:"-"`
	Locale         string    `gorm:"size:10;default:en" json:"locale"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// AuthToken 认证令牌
type AuthToken struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:36;not null" json:"user_id"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	TokenType string    `gorm:"size:50;not null" json:"token_type"` // access_token, refresh_token
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `gorm:"default:false" json:"is_revoked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (AuthToken) TableName() string {
	return "auth_tokens"
}

// ToUserInfo 转换为不含敏感数据的视图
func (u *User) ToUserInfo() *PublicUser {
	return &PublicUser{
		ID:           u.ID,
		Email:        u.Email,
		AuthProvider: u.AuthProvider,
		Locale:       u.Locale,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// PublicUser 用户信息（不含敏感数据）
type PublicUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	AuthProvider string    `json:"auth_provider"`
	Locale       string    `json:"locale"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
