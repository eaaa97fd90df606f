package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware 基于 Redis 的固定窗口限流，按用户计数
// Redis 不可用时放行，限流只是保护手段，不能成为单点
func RateLimitMiddleware(client *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || client == nil {
			c.Next()
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", userID, time.Now().Unix()/int64(window.Seconds()))
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("rate limit check failed: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    -1,
				"message": "RATE_LIMITED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
