package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/middleware"
	"github.com/solacore/solve-api/internal/service"
)

// SubscriptionHandler 订阅与配额处理器
type SubscriptionHandler struct {
	svc *service.Services
}

// NewSubscriptionHandler 创建订阅处理器
func NewSubscriptionHandler(svc *service.Services) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc}
}

// Get 获取当前订阅档位和本周期用量
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	snapshot, err := h.svc.Usage.GetSnapshot(userID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, snapshot)
}
