package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB        *gorm.DB // 直接访问数据库
	Auth      *AuthRepository
	Device    *DeviceRepository
	Session   *SessionRepository
	Usage     *UsageRepository
	Analytics *AnalyticsRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:        db,
		Auth:      NewAuthRepository(db),
		Device:    NewDeviceRepository(db),
		Session:   NewSessionRepository(db),
		Usage:     NewUsageRepository(db),
		Analytics: NewAnalyticsRepository(db),
	}
}
