package command

import (
	"context"
	"fmt"
	"net/http"

	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
)

// Request 发往后端的一次命令请求
type Request struct {
	Method string  // GET 用于查询，POST 用于修改
	Params *Params // 请求参数，必须包含 cmd
	Raw    bool    // true 时返回原始响应体（导出），不解析信封
}

// Cmd 命令名
func (r Request) Cmd() string {
	if r.Params == nil {
		return ""
	}
	return r.Params.Get("cmd")
}

// RawResponse 传输层返回的原始成功响应
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RawRejection 传输层返回的原始失败响应
// Reason 为空时按状态码推断
type RawRejection struct {
	StatusCode int
	Body       []byte
	Reason     envelope.Reason
}

func (r *RawRejection) Error() string {
	return fmt.Sprintf("raw rejection (status %d)", r.StatusCode)
}

// Transport 命令的传输层
// 成功时返回 RawResponse，后端拒绝时返回 *RawRejection 错误
// 超时与取消由实现方根据 ctx 处理
type Transport interface {
	Do(ctx context.Context, req Request) (*RawResponse, error)
}

// TransportFunc 函数形式的 Transport
type TransportFunc func(ctx context.Context, req Request) (*RawResponse, error)

// Do 实现 Transport
func (f TransportFunc) Do(ctx context.Context, req Request) (*RawResponse, error) {
	return f(ctx, req)
}
