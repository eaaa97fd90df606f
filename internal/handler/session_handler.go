package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/middleware"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/service"
	"github.com/solacore/solve-api/internal/service/solve"
)

// SessionHandler 会话处理器
type SessionHandler struct {
	svc *service.Services
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(svc *service.Services) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Create 创建会话
// 设备指纹通过 X-Device-Fingerprint 头传递，必须是当前用户的活跃设备
func (h *SessionHandler) Create(c *gin.Context) {
	fingerprint := c.GetHeader("X-Device-Fingerprint")
	if fingerprint == "" {
		badRequest(c, "Missing X-Device-Fingerprint header")
		return
	}

	var req struct {
		Locale string `json:"locale"`
	}
	_ = c.ShouldBindJSON(&req)

	userID, _ := middleware.GetUserID(c)
	session, snapshot, err := h.svc.Solve.CreateSession(c.Request.Context(), userID, fingerprint, req.Locale)
	if err != nil {
		errorResponse(c, err)
		return
	}

	created(c, gin.H{
		"session": session,
		"usage":   snapshot,
	})
}

// List 列出当前用户的会话
func (h *SessionHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	page, size := getPagination(c)

	sessions, err := h.svc.Solve.ListSessions(userID, (page-1)*size, size)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, sessions)
}

// Get 获取会话详情
func (h *SessionHandler) Get(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	session, err := h.svc.Solve.GetSession(userID, c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, session)
}

// UpdateSessionRequest 会话更新请求
type UpdateSessionRequest struct {
	Status          *string     `json:"status"`
	CurrentStep     *model.Step `json:"current_step"`
	FirstStepAction *string     `json:"first_step_action"`
	ReminderTime    *time.Time  `json:"reminder_time"`
}

// Update 更新会话（状态、步骤、首步行动、提醒时间）
func (h *SessionHandler) Update(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	session, err := h.svc.Solve.UpdateSession(userID, c.Param("id"), &solve.UpdateSessionRequest{
		Status:          req.Status,
		CurrentStep:     req.CurrentStep,
		FirstStepAction: req.FirstStepAction,
		ReminderTime:    req.ReminderTime,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, session)
}

// ListMessages 获取会话完整消息记录
func (h *SessionHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	messages, err := h.svc.Solve.ListMessages(userID, c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, messages)
}

// StreamMessage 发送消息并流式返回 AI 回复
// 客户端必须声明自己所处的步骤，与服务端不一致时拒绝
func (h *SessionHandler) StreamMessage(c *gin.Context) {
	var req struct {
		Content string     `json:"content" binding:"required"`
		Step    model.Step `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid parameters: "+err.Error())
		return
	}

	userID, _ := middleware.GetUserID(c)
	eventCh, err := h.svc.Solve.StreamTurn(c.Request.Context(), userID, c.Param("id"), &solve.TurnRequest{
		Content: req.Content,
		Step:    req.Step,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}

	// 设置 SSE 响应头
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")

	// 发送流式事件
	for event := range eventCh {
		select {
		case <-c.Request.Context().Done():
			return
		default:
			c.SSEvent(event.Type, event.Data)
			c.Writer.Flush()
		}
	}
}
