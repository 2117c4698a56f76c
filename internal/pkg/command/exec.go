package command

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"
)

// 命令执行结果，用于日志
const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// base 单数与复数命令共用的执行逻辑
// 状态: built -> sent -> decoded | rejected，不重试，不缓存
type base struct {
	resource  Resource
	transport Transport
}

func newRequest(method, cmd string) Request {
	return Request{Method: method, Params: NewParams().Set("cmd", cmd)}
}

// do 发送请求并返回原始响应
// 后端拒绝时返回 *envelope.Rejection，不做包装
func (b *base) do(ctx context.Context, req Request) (*RawResponse, error) {
	start := time.Now()
	raw, err := b.transport.Do(ctx, req)
	if err != nil {
		if rej, ok := asRejection(err); ok {
			logger.LogCommand(req.Cmd(), b.resource.Name, resultRejected, time.Since(start), map[string]interface{}{
				"status_code": rej.StatusCode,
				"reason":      rej.Reason,
				"message":     rej.Message,
			})
			return nil, rej
		}
		logger.LogCommand(req.Cmd(), b.resource.Name, resultFailed, time.Since(start), map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%s: %w", req.Cmd(), err)
	}
	logger.LogCommand(req.Cmd(), b.resource.Name, resultSuccess, time.Since(start), map[string]interface{}{
		"status_code": raw.StatusCode,
		"bytes":       len(raw.Body),
	})
	return raw, nil
}

// send 发送请求并解码信封
func (b *base) send(ctx context.Context, req Request) (*envelope.Response, error) {
	raw, err := b.do(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := envelope.Decode(raw.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", req.Cmd(), err)
	}
	return resp, nil
}

// action 发送修改类请求并解析 action_result
func (b *base) action(ctx context.Context, req Request) (*ActionResult, error) {
	resp, err := b.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseActionResult(resp), nil
}

// export 发送导出请求，返回原始响应体
func (b *base) export(ctx context.Context, params *Params) (*ExportResult, error) {
	req := Request{Method: http.MethodPost, Params: params, Raw: true}
	raw, err := b.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return newExportResult(raw), nil
}

// bulkParams bulk_delete / bulk_export 的公共参数
func (b *base) bulkParams(cmd string) *Params {
	return NewParams().
		Set("cmd", cmd).
		Set("resource_type", b.resource.Name)
}

// selectIDs 以 bulk_selected:<id>=1 的形式选择实体
func selectIDs(p *Params, ids []string) *Params {
	p.Set("bulk_select", 1)
	for _, id := range ids {
		p.Set("bulk_selected"+MultiValueSuffix+id, 1)
	}
	return p
}
