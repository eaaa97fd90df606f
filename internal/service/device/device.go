// Package device 设备绑定管理
package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/repository"
	"gorm.io/gorm"
)

// Service 设备服务
type Service struct {
	store repository.DeviceStore
}

// NewService 创建设备服务
func NewService(store repository.DeviceStore) *Service {
	return &Service{store: store}
}

// RegisterRequest 设备注册请求
type RegisterRequest struct {
	Fingerprint string `json:"device_fingerprint" binding:"required"`
	Name        string `json:"device_name"`
	Platform    string `json:"platform"` // ios/android
}

// Register 注册设备；同一指纹重复注册时复用已有记录
func (s *Service) Register(userID string, req *RegisterRequest) (*model.Device, error) {
	existing, err := s.store.GetByFingerprint(userID, req.Fingerprint)
	if err == nil {
		if touchErr := s.store.TouchLastActive(existing.ID); touchErr != nil {
			return nil, touchErr
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up device: %w", err)
	}

	device := &model.Device{
		ID:                uuid.NewString(),
		UserID:            userID,
		DeviceFingerprint: req.Fingerprint,
		DeviceName:        req.Name,
		Platform:          req.Platform,
		LastActiveAt:      time.Now(),
		IsActive:          true,
	}
	if err := s.store.Create(device); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return device, nil
}

// List 列出用户的设备
func (s *Service) List(userID string) ([]*model.Device, error) {
	return s.store.ListByUserID(userID)
}

// Remove 解绑设备
func (s *Service) Remove(deviceID, userID string) error {
	return s.store.Deactivate(deviceID, userID)
}
