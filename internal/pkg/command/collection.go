package command

import (
	"context"
	"fmt"
	"net/http"

	"github.com/greenbone/gsa-sub043/internal/pkg/filter"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// ListOptions 列表查询选项
type ListOptions struct {
	Filter *filter.Filter // 过滤器，nil 时使用后端默认过滤
	Extra  map[string]any // 其他请求参数，例如 resource_type
}

// AggregateOptions 聚合查询选项
type AggregateOptions struct {
	AggregateType string         // 聚合的资源类型，默认资源名
	GroupColumn   string         // 分组列
	DataColumns   []string       // 统计列
	Filter        *filter.Filter // 过滤器
	Extra         map[string]any // 其他请求参数
}

// CollectionCommand 资源列表的命令：get / getAll / delete / export / aggregates
type CollectionCommand struct {
	base
}

// NewCollectionCommand 创建复数命令
func NewCollectionCommand(t Transport, r Resource) (*CollectionCommand, error) {
	res, err := r.withDefaults()
	if err != nil {
		return nil, err
	}
	return &CollectionCommand{base{resource: res, transport: t}}, nil
}

// Resource 资源描述
func (c *CollectionCommand) Resource() Resource {
	return c.resource
}

// Get 查询一页，cmd=get_<plural> filter=...
// 结果永远是列表，后端对单个结果返回裸元素时同样包装为长度为 1 的列表
func (c *CollectionCommand) Get(ctx context.Context, opts ListOptions) (*ListResult, error) {
	req := newRequest(http.MethodGet, "get_"+c.resource.Plural)
	req.Params.SetFilter(opts.Filter)
	req.Params.Merge(opts.Extra)

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Data: []record.Record{}}
	result.Meta.Meta = resp.Meta

	found, ok := record.Lookup(resp.Data, c.resource.ListPath)
	if !ok {
		return nil, fmt.Errorf("get %s: %w: %s", c.resource.Plural, ErrElementNotFound, c.resource.ListPath)
	}
	response, isMap := found.(map[string]any)
	if !isMap {
		// 空的列表响应 <get_tasks_response/>
		result.Meta.Counts = parseCollectionCounts(nil, &c.resource, 0)
		return result, nil
	}

	result.Data = record.MapAll(c.resource.Mapper, response[c.resource.ListElement])
	result.Meta.Counts = parseCollectionCounts(response, &c.resource, len(result.Data))
	result.Meta.Filter = parseAppliedFilter(response)
	return result, nil
}

// GetAll 查询全部，过滤器改为 first=1 rows=-1
func (c *CollectionCommand) GetAll(ctx context.Context, opts ListOptions) (*ListResult, error) {
	opts.Filter = opts.Filter.All()
	return c.Get(ctx, opts)
}

// Delete 按ID批量删除，cmd=bulk_delete
func (c *CollectionCommand) Delete(ctx context.Context, ids []string) (*ActionResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("delete %s: %w", c.resource.Plural, ErrMissingID)
	}
	params := selectIDs(c.bulkParams("bulk_delete"), ids)
	return c.action(ctx, Request{Method: http.MethodPost, Params: params})
}

// DeleteByFilter 按过滤器批量删除
func (c *CollectionCommand) DeleteByFilter(ctx context.Context, f *filter.Filter) (*ActionResult, error) {
	params := c.bulkParams("bulk_delete").SetFilter(f.All())
	return c.action(ctx, Request{Method: http.MethodPost, Params: params})
}

// Export 按ID批量导出，返回原始响应体
func (c *CollectionCommand) Export(ctx context.Context, ids []string) (*ExportResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("export %s: %w", c.resource.Plural, ErrMissingID)
	}
	return c.export(ctx, selectIDs(c.bulkParams("bulk_export"), ids))
}

// ExportByFilter 按过滤器批量导出
func (c *CollectionCommand) ExportByFilter(ctx context.Context, f *filter.Filter) (*ExportResult, error) {
	params := c.bulkParams("bulk_export").Set("bulk_select", 0).SetFilter(f)
	return c.export(ctx, params)
}

// GetAggregates 聚合查询，cmd=get_aggregate
// 返回分组记录（value/count/cCount/stats）与列信息
func (c *CollectionCommand) GetAggregates(ctx context.Context, opts AggregateOptions) (*AggregateResult, error) {
	aggregateType := opts.AggregateType
	if aggregateType == "" {
		aggregateType = c.resource.Name
	}
	req := newRequest(http.MethodGet, "get_aggregate")
	req.Params.Set("aggregate_type", aggregateType)
	if opts.GroupColumn != "" {
		req.Params.Set("group_column", opts.GroupColumn)
	}
	if len(opts.DataColumns) > 0 {
		req.Params.Set("data_columns", opts.DataColumns)
	}
	req.Params.SetFilter(opts.Filter)
	req.Params.Merge(opts.Extra)

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	aggregate, ok := record.Lookup(resp.Data, "get_aggregate.get_aggregates_response.aggregate")
	if !ok {
		return nil, fmt.Errorf("get_aggregate %s: %w", aggregateType, ErrElementNotFound)
	}
	result := &AggregateResult{Groups: []record.Record{}, Columns: []record.Record{}, Meta: resp.Meta}
	if agg, isMap := aggregate.(map[string]any); isMap {
		result.Groups = record.MapAll(record.Default, agg["group"])
		if info, ok := record.Lookup(agg, "column_info.aggregate_column"); ok {
			result.Columns = record.MapAll(record.Default, info)
		}
	}
	return result, nil
}
