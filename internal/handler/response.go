package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/solacore/solve-api/internal/service/solve"
)

// Response 统一响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// success 成功响应
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// created 创建成功响应
func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// badRequest 参数错误响应
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: -1, Message: msg})
}

// errorResponse 错误响应；业务错误码映射到对应的 HTTP 状态。
// 未知错误细节只记服务端日志，对客户端一律 INTERNAL_ERROR
func errorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	switch {
	case errors.Is(err, solve.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, solve.ErrSessionNotActive),
		errors.Is(err, solve.ErrStepMismatch),
		errors.Is(err, solve.ErrInvalidStatus),
		errors.Is(err, solve.ErrInvalidStep),
		errors.Is(err, solve.ErrInvalidStepTransition):
		status = http.StatusBadRequest
	case errors.Is(err, solve.ErrQuotaExceeded),
		errors.Is(err, solve.ErrDeviceNotFound):
		status = http.StatusForbidden
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "INTERNAL_ERROR"
	}
	c.JSON(status, Response{Code: -1, Message: message})
}

// getPagination 获取分页参数
func getPagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
