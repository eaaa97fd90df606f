package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/service"
)

// RequireAuth 要求有效认证的中间件
// 必须提供有效的 JWT token，否则返回 401
func RequireAuth(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing Authorization header",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid Authorization header format",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := svc.Auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// GetCurrentUser 从上下文获取当前用户
func GetCurrentUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
