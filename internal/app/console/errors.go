package console

import (
	"errors"
	"net/http"

	"github.com/greenbone/gsa-sub043/internal/model"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusClientClosedRequest 调用方取消请求
const StatusClientClosedRequest = 499

// errorStatus 错误对应的HTTP状态码
//   - 后端拒绝使用后端的状态码，没有状态码时按原因推断
//   - 未知资源、找不到元素 404，缺少ID 400
//   - 响应无法解码、传输失败 502
func errorStatus(err error) int {
	if rej, ok := envelope.AsRejection(err); ok {
		if rej.StatusCode >= 400 {
			return rej.StatusCode
		}
		switch rej.Reason {
		case envelope.ReasonTimeout:
			return http.StatusGatewayTimeout
		case envelope.ReasonCancel:
			return StatusClientClosedRequest
		case envelope.ReasonUnauthorized:
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, command.ErrUnknownResource), errors.Is(err, command.ErrElementNotFound):
		return http.StatusNotFound
	case errors.Is(err, command.ErrMissingID):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// respondError 写错误响应并记录错误日志
func respondError(c *gin.Context, operation string, err error) {
	status := errorStatus(err)
	resp := model.APIResponse{
		Code:    status,
		Status:  model.StatusFailed,
		Message: operation + " failed",
		Error:   err.Error(),
	}
	if rej, ok := envelope.AsRejection(err); ok {
		resp.Error = rej.Message
		resp.Reason = string(rej.Reason)
		resp.Title = rej.Title
	}

	logger.LogError(err, requestID(c), c.Request.URL.Path, c.Request.Method, map[string]interface{}{
		"operation":   operation,
		"status_code": status,
	})
	_ = c.Error(err)
	c.JSON(status, resp)
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  model.StatusSuccess,
		Message: message,
		Data:    data,
	})
}
