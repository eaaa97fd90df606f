package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/handler"
	"github.com/solacore/solve-api/internal/middleware"
	"github.com/solacore/solve-api/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 公开接口
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的接口
		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(svc))
		{
			authed.GET("/auth/me", h.Auth.GetCurrentUser)
			authed.POST("/auth/logout", h.Auth.Logout)
			authed.POST("/auth/change-password", h.Auth.ChangePassword)
			authed.DELETE("/auth/account", h.Auth.DeleteAccount)

			// Device 设备绑定
			devices := authed.Group("/devices")
			{
				devices.POST("", h.Device.Register)
				devices.GET("", h.Device.List)
				devices.DELETE("/:id", h.Device.Remove)
			}

			// Session 引导式会话
			sessions := authed.Group("/sessions")
			{
				sessions.POST("", h.Session.Create)
				sessions.GET("", h.Session.List)
				sessions.GET("/:id", h.Session.Get)
				sessions.PUT("/:id", h.Session.Update)
				sessions.GET("/:id/messages", h.Session.ListMessages)
				sessions.POST("/:id/messages",
					middleware.RateLimitMiddleware(svc.Redis, svc.Config.Quota.StreamRateLimit, time.Minute),
					h.Session.StreamMessage)
			}

			// Subscription 订阅与配额
			authed.GET("/subscription", h.Subscription.Get)
		}
	}

	return r
}
