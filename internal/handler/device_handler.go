package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/middleware"
	"github.com/solacore/solve-api/internal/service"
	"github.com/solacore/solve-api/internal/service/device"
)

// DeviceHandler 设备处理器
type DeviceHandler struct {
	svc *service.Services
}

// NewDeviceHandler 创建设备处理器
func NewDeviceHandler(svc *service.Services) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

// Register 注册设备
func (h *DeviceHandler) Register(c *gin.Context) {
	var req device.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	dev, err := h.svc.Device.Register(userID, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, dev)
}

// List 列出当前用户的设备
func (h *DeviceHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	devices, err := h.svc.Device.List(userID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, devices)
}

// Remove 解绑设备
func (h *DeviceHandler) Remove(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if err := h.svc.Device.Remove(c.Param("id"), userID); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, nil)
}
