package handler

import (
	"github.com/solacore/solve-api/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth         *AuthHandler
	Device       *DeviceHandler
	Session      *SessionHandler
	Subscription *SubscriptionHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(svc),
		Device:       NewDeviceHandler(svc),
		Session:      NewSessionHandler(svc),
		Subscription: NewSubscriptionHandler(svc),
	}
}
