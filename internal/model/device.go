package model

import "time"

// Device 设备 - 用于设备绑定和反滥用
type Device struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	UserID            string     `gorm:"index;size:36;not null" json:"user_id"`
	DeviceFingerprint string     `gorm:"index;size:255;not null" json:"device_fingerprint"`
	DeviceName        string     `gorm:"size:255" json:"device_name"`
	Platform          string     `gorm:"size:50" json:"platform"` // ios/android
	LastActiveAt      time.Time  `json:"last_active_at"`
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastRemovalAt     *time.Time `json:"last_removal_at,omitempty"` // 限制解绑频率
}

// TableName 指定表名
func (Device) TableName() string {
	return "devices"
}
