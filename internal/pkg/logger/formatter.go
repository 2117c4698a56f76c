// 结构化日志辅助方法
package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FormatTimestamp 格式化时间戳为统一的毫秒精度格式
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampFormat)
}

// LogType 日志类型枚举
type LogType string

const (
	// AccessLog 访问日志 - 记录控制台 REST 接口请求
	AccessLog LogType = "access"
	// CommandLog 命令日志 - 记录发往 gsad 的命令及结果
	CommandLog LogType = "command"
	// ErrorLog 错误日志 - 记录系统错误和后端拒绝
	ErrorLog LogType = "error"
	// SystemLog 系统日志 - 记录组件启动、停止、配置重载
	SystemLog LogType = "system"
)

// LogAccessRequest 记录HTTP访问日志
func LogAccessRequest(c *gin.Context, startTime time.Time, requestID string) {
	responseTime := time.Since(startTime).Milliseconds()

	entry := WithFields(logrus.Fields{
		"type":          AccessLog,
		"method":        c.Request.Method,
		"path":          c.Request.URL.Path,
		"query":         c.Request.URL.RawQuery,
		"status_code":   c.Writer.Status(),
		"response_time": responseTime,
		"client_ip":     c.ClientIP(),
		"user_agent":    c.Request.UserAgent(),
		"request_id":    requestID,
		"response_size": c.Writer.Size(),
		"timestamp":     FormatTimestamp(startTime),
	})

	switch status := c.Writer.Status(); {
	case status >= 500:
		entry.Error("HTTP request completed with server error")
	case status >= 400:
		entry.Warn("HTTP request completed with client error")
	default:
		entry.Info("HTTP request completed")
	}
}

// LogCommand 记录一次 gsad 命令
// result: success, rejected, failed
func LogCommand(cmd, resource, result string, duration time.Duration, extraFields map[string]interface{}) {
	fields := logrus.Fields{
		"type":        CommandLog,
		"cmd":         cmd,
		"resource":    resource,
		"result":      result,
		"duration_ms": duration.Milliseconds(),
	}
	for k, v := range extraFields {
		fields[k] = v
	}

	entry := WithFields(fields)
	if result == "success" {
		entry.Debug("gsad command completed")
		return
	}
	entry.Warn("gsad command did not succeed")
}

// LogError 记录错误日志
func LogError(err error, requestID, path, method string, extraFields map[string]interface{}) {
	if err == nil {
		return
	}
	fields := logrus.Fields{
		"type":       ErrorLog,
		"error":      err.Error(),
		"request_id": requestID,
		"path":       path,
		"method":     method,
	}
	for k, v := range extraFields {
		fields[k] = v
	}
	WithFields(fields).Error("Error occurred")
}

// LogSystemEvent 记录系统事件日志
func LogSystemEvent(component, event, message string, level logrus.Level, extraFields map[string]interface{}) {
	fields := logrus.Fields{
		"type":      SystemLog,
		"component": component,
		"event":     event,
	}
	for k, v := range extraFields {
		fields[k] = v
	}
	WithFields(fields).Log(level, message)
}
