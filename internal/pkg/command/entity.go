package command

import (
	"context"
	"fmt"
	"net/http"

	"github.com/greenbone/gsa-sub043/internal/pkg/filter"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// GetOptions 单个实体查询选项
type GetOptions struct {
	Filter *filter.Filter // 附加过滤器（例如报告的结果过滤）
	Extra  map[string]any // 其他请求参数，例如 details=1
}

// EntityCommand 单个实体的命令：get / create / save / delete / clone / export
type EntityCommand struct {
	base
}

// NewEntityCommand 创建单数命令
func NewEntityCommand(t Transport, r Resource) (*EntityCommand, error) {
	res, err := r.withDefaults()
	if err != nil {
		return nil, err
	}
	return &EntityCommand{base{resource: res, transport: t}}, nil
}

// Resource 资源描述
func (c *EntityCommand) Resource() Resource {
	return c.resource
}

// Get 查询单个实体
// cmd=get_<name> <name>_id=<id> [filter=...]
// 后端可能返回单个元素或长度为 1 的列表，这里统一为单个记录
func (c *EntityCommand) Get(ctx context.Context, id string, opts GetOptions) (*Result, error) {
	if id == "" {
		return nil, fmt.Errorf("get %s: %w", c.resource.Name, ErrMissingID)
	}
	req := newRequest(http.MethodGet, "get_"+c.resource.Name)
	req.Params.Set(c.resource.IDParam(), id)
	req.Params.SetFilter(opts.Filter)
	req.Params.Merge(opts.Extra)

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	element, ok := record.Lookup(resp.Data, c.resource.ElementPath)
	if !ok {
		return nil, fmt.Errorf("get %s %s: %w: %s", c.resource.Name, id, ErrElementNotFound, c.resource.ElementPath)
	}
	if list, isList := element.([]any); isList {
		if len(list) == 0 {
			return nil, fmt.Errorf("get %s %s: %w: %s", c.resource.Name, id, ErrElementNotFound, c.resource.ElementPath)
		}
		element = list[0]
	}
	return &Result{Data: c.resource.Mapper.Map(element), Meta: resp.Meta}, nil
}

// Create 创建实体，cmd=create_<name>
func (c *EntityCommand) Create(ctx context.Context, data map[string]any) (*ActionResult, error) {
	params := MapFields(data, c.resource.FieldMap)
	params.Set("cmd", "create_"+c.resource.Name)
	return c.action(ctx, Request{Method: http.MethodPost, Params: moveCmdFirst(params)})
}

// Save 保存实体，cmd=save_<name>，data 中的 id 写为 <name>_id
func (c *EntityCommand) Save(ctx context.Context, data map[string]any) (*ActionResult, error) {
	id := record.String(data[record.IDField])
	if id == "" {
		return nil, fmt.Errorf("save %s: %w", c.resource.Name, ErrMissingID)
	}
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if k != record.IDField {
			fields[k] = v
		}
	}
	params := MapFields(fields, c.resource.FieldMap)
	params.Set("cmd", "save_"+c.resource.Name)
	params.Set(c.resource.IDParam(), id)
	return c.action(ctx, Request{Method: http.MethodPost, Params: moveCmdFirst(params)})
}

// Delete 删除实体，cmd=delete_<name> <name>_id=<id>
func (c *EntityCommand) Delete(ctx context.Context, id string) (*ActionResult, error) {
	if id == "" {
		return nil, fmt.Errorf("delete %s: %w", c.resource.Name, ErrMissingID)
	}
	req := newRequest(http.MethodPost, "delete_"+c.resource.Name)
	req.Params.Set(c.resource.IDParam(), id)
	return c.action(ctx, req)
}

// Clone 复制实体，cmd=clone resource_type=<name> id=<id>，结果中的 ID 为新实体ID
func (c *EntityCommand) Clone(ctx context.Context, id string) (*ActionResult, error) {
	if id == "" {
		return nil, fmt.Errorf("clone %s: %w", c.resource.Name, ErrMissingID)
	}
	req := newRequest(http.MethodPost, "clone")
	req.Params.Set("resource_type", c.resource.Name)
	req.Params.Set("id", id)
	return c.action(ctx, req)
}

// Export 导出单个实体，返回原始响应体
func (c *EntityCommand) Export(ctx context.Context, id string) (*ExportResult, error) {
	if id == "" {
		return nil, fmt.Errorf("export %s: %w", c.resource.Name, ErrMissingID)
	}
	return c.export(ctx, selectIDs(c.bulkParams("bulk_export"), []string{id}))
}

// moveCmdFirst 让 cmd 成为第一个参数，便于日志与缓存键阅读
func moveCmdFirst(p *Params) *Params {
	out := NewParams().Set("cmd", p.Get("cmd"))
	for _, k := range p.Keys() {
		if k == "cmd" {
			continue
		}
		for _, v := range p.GetAll(k) {
			out.Add(k, v)
		}
	}
	return out
}
