package repository

import (
	"time"

	"github.com/solacore/solve-api/internal/model"
	"gorm.io/gorm"
)

// DeviceRepository 设备数据访问
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository 创建设备仓库
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create 注册设备
func (r *DeviceRepository) Create(device *model.Device) error {
	return r.db.Create(device).Error
}

// GetByFingerprint 按用户和指纹获取活跃设备
func (r *DeviceRepository) GetByFingerprint(userID, fingerprint string) (*model.Device, error) {
	var device model.Device
	err := r.db.Where("user_id = ? AND device_fingerprint = ? AND is_active = ?", userID, fingerprint, true).
		First(&device).Error
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// ListByUserID 列出用户的设备
func (r *DeviceRepository) ListByUserID(userID string) ([]*model.Device, error) {
	var devices []*model.Device
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&devices).Error
	return devices, err
}

// TouchLastActive 更新设备活跃时间
func (r *DeviceRepository) TouchLastActive(deviceID string) error {
	return r.db.Model(&model.Device{}).Where("id = ?", deviceID).
		Update("last_active_at", time.Now()).Error
}

// Deactivate 解绑设备
func (r *DeviceRepository) Deactivate(deviceID, userID string) error {
	now := time.Now()
	return r.db.Model(&model.Device{}).
		Where("id = ? AND user_id = ?", deviceID, userID).
		Updates(map[string]interface{}{"is_active": false, "last_removal_at": &now}).Error
}
