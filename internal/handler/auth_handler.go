package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/middleware"
	"github.com/solacore/solve-api/internal/service"
	"github.com/solacore/solve-api/internal/service/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.Services
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register 用户注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	created(c, resp)
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}

	success(c, resp)
}

// RefreshToken 刷新令牌
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters")
		return
	}

	accessToken, newRefreshToken, err := h.svc.Auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		badRequest(c, "Invalid refresh token")
		return
	}

	success(c, gin.H{
		"access_token":  accessToken,
		"refresh_token": newRefreshToken,
	})
}

// Logout 用户登出，撤销全部令牌
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if err := h.svc.Auth.Logout(c.Request.Context(), userID); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, nil)
}

// GetCurrentUser 获取当前用户
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		badRequest(c, "User not found in context")
		return
	}
	success(c, user.ToUserInfo())
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters")
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.svc.Auth.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		badRequest(c, err.Error())
		return
	}

	success(c, nil)
}

// DeleteAccount 注销账号，级联删除全部数据
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	// 请求体可为空（OAuth 账号无密码）
	_ = c.ShouldBindJSON(&req)

	userID, _ := middleware.GetUserID(c)
	if err := h.svc.Auth.DeleteAccount(c.Request.Context(), userID, req.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	success(c, nil)
}
