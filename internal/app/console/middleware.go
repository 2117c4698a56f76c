/**
 * 中间件
 * @description: 请求ID、访问日志与 panic 恢复
 * @func:
 *   - RequestIDMiddleware 读取或生成 X-Request-ID
 *   - LoggingMiddleware 记录访问日志
 *   - RecoveryMiddleware panic 转为 500 并记录错误日志
 */
package console

import (
	"fmt"
	"net/http"
	"time"

	"github.com/greenbone/gsa-sub043/internal/model"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// requestIDKey gin 上下文中请求ID的键
const requestIDKey = "request_id"

// RequestIDMiddleware 没有 X-Request-ID 时生成一个，并写回响应头
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// LoggingMiddleware 访问日志
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAccessRequest(c, start, requestID(c))
	}
}

// RecoveryMiddleware panic 恢复
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.LogError(fmt.Errorf("panic: %v", recovered), requestID(c), c.Request.URL.Path, c.Request.Method, nil)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  model.StatusFailed,
			Message: "Internal server error",
		})
	})
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
