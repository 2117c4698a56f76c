package command

import (
	"mime"
	"net/http"

	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/pkg/filter"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// Result 单个实体的查询结果
type Result struct {
	Data record.Record `json:"data"`
	Meta envelope.Meta `json:"meta"`
}

// ListMeta 列表结果的元数据
type ListMeta struct {
	envelope.Meta `yaml:",inline"`
	Counts        CollectionCounts `json:"counts"`
	Filter        *filter.Filter   `json:"filter,omitempty"`
}

// FilterString 后端实际应用的过滤器文本
func (m ListMeta) FilterString() string {
	return filter.ToFilterString(m.Filter)
}

// ListResult 列表查询结果，Data 永远是列表（可能为空）
type ListResult struct {
	Data []record.Record `json:"data"`
	Meta ListMeta        `json:"meta"`
}

// ActionResult 修改类命令的结果
type ActionResult struct {
	ID      string        `json:"id,omitempty"`
	Action  string        `json:"action,omitempty"`
	Message string        `json:"message,omitempty"`
	Meta    envelope.Meta `json:"meta"`
}

// ExportResult 导出命令的原始结果
type ExportResult struct {
	ContentType string
	Filename    string
	Body        []byte
}

// AggregateResult 聚合查询结果
type AggregateResult struct {
	Groups  []record.Record `json:"groups"`
	Columns []record.Record `json:"columns"`
	Meta    envelope.Meta   `json:"meta"`
}

// CollectionCounts 列表分页计数
type CollectionCounts struct {
	Filtered int `json:"filtered"` // 过滤后的总数
	All      int `json:"all"`      // 全部数量
	First    int `json:"first"`    // 当前页第一条的位置（从 1 开始）
	Rows     int `json:"rows"`     // 每页行数
	Length   int `json:"length"`   // 当前页实际条数
}

// Last 当前页最后一条的位置
func (c CollectionCounts) Last() int {
	if c.Length == 0 {
		return c.First
	}
	return c.First + c.Length - 1
}

// IsFirst 是否第一页
func (c CollectionCounts) IsFirst() bool {
	return c.First <= 1
}

// HasPrevious 是否有上一页
func (c CollectionCounts) HasPrevious() bool {
	return !c.IsFirst()
}

// HasNext 是否有下一页
func (c CollectionCounts) HasNext() bool {
	return c.Last() < c.Filtered
}

// parseCollectionCounts 从列表响应中解析分页计数
// <tasks start="1" max="10"/> <task_count>25<filtered>12</filtered><page>10</page></task_count>
func parseCollectionCounts(response map[string]any, res *Resource, length int) CollectionCounts {
	counts := CollectionCounts{Length: length}
	if paging, ok := response[res.Plural].(map[string]any); ok {
		counts.First, _ = record.Int(paging["_start"])
		counts.Rows, _ = record.Int(paging["_max"])
	}
	switch ec := response[res.CountsKey()].(type) {
	case map[string]any:
		counts.All, _ = record.Int(ec[envelope.TextKey])
		counts.Filtered, _ = record.Int(ec["filtered"])
		if page, ok := record.Int(ec["page"]); ok {
			counts.Length = page
		}
	case string:
		counts.All, _ = record.Int(ec)
		counts.Filtered = counts.All
	default:
		// 没有计数信息的列表（例如 resource_names）
		counts.All = length
		counts.Filtered = length
		counts.First = 1
		counts.Rows = length
	}
	return counts
}

// parseAppliedFilter 后端回显的过滤器 <filters id="..."><term>...</term></filters>
func parseAppliedFilter(response map[string]any) *filter.Filter {
	filters, ok := response["filters"].(map[string]any)
	if !ok {
		return nil
	}
	term, ok := envelope.TextOf(filters["term"])
	if !ok {
		return nil
	}
	f := filter.Parse(term)
	if id, ok := filters["_id"].(string); ok && id != "" && id != "0" {
		f = f.WithID(id)
	}
	return f
}

// parseActionResult 解析 <action_result><action/><id/><message/></action_result>
func parseActionResult(resp *envelope.Response) *ActionResult {
	result := &ActionResult{Meta: resp.Meta}
	ar, ok := resp.Data["action_result"].(map[string]any)
	if !ok {
		return result
	}
	result.ID = record.String(ar["id"])
	result.Action = record.String(ar["action"])
	result.Message = record.String(ar["message"])
	return result
}

func newExportResult(raw *RawResponse) *ExportResult {
	result := &ExportResult{Body: raw.Body}
	result.ContentType = raw.Header.Get("Content-Type")
	if cd := raw.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			result.Filename = params["filename"]
		}
	}
	if result.ContentType == "" {
		result.ContentType = http.DetectContentType(raw.Body)
	}
	return result
}
