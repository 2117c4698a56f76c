/**
 * 模型:响应模型
 * @description: 控制台 REST 接口的响应结构
 */
package model

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
	"github.com/greenbone/gsa-sub043/internal/pkg/filter"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// 响应状态
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// APIResponse 通用API响应结构
type APIResponse struct {
	Code    int         `json:"code,omitempty"`   // 响应状态码，可选
	Status  string      `json:"status"`           // 响应状态："success" 或 "failed"
	Message string      `json:"message"`          // 响应消息
	Data    interface{} `json:"data,omitempty"`   // 响应数据，可选
	Error   string      `json:"error,omitempty"`  // 错误信息，可选
	Reason  string      `json:"reason,omitempty"` // 后端拒绝原因：error / unauthorized / timeout / cancel
	Title   string      `json:"title,omitempty"`  // 后端错误标题
}

// EntityResponse 单个实体响应
type EntityResponse struct {
	Item record.Record `json:"item"`
	Meta envelope.Meta `json:"meta"`
}

// ListResponse 列表响应
type ListResponse struct {
	Items  []record.Record          `json:"items"`            // 当前页记录，永远是列表
	Counts command.CollectionCounts `json:"counts"`           // 分页计数
	Filter string                   `json:"filter,omitempty"` // 后端实际应用的过滤器
	Meta   envelope.Meta            `json:"meta"`
}

// ResourceInfo 已注册资源的描述
type ResourceInfo struct {
	Name   string `json:"name"`
	Plural string `json:"plural"`
}

// TermInfo 过滤条件的解释
type TermInfo struct {
	Keyword  string `json:"keyword,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value"`
	Text     string `json:"text"` // 条件的规范文本
}

// FilterExplanation 过滤器规范化结果
type FilterExplanation struct {
	Filter      string     `json:"filter"`       // 规范化后的过滤器文本
	Simple      string     `json:"simple"`       // 去掉分页与排序后的过滤器
	Terms       []TermInfo `json:"terms"`        // 条件列表
	First       int        `json:"first"`        // 分页起始位置
	Rows        int        `json:"rows"`         // 每页行数
	SortBy      string     `json:"sort_by"`      // 排序字段
	SortReverse bool       `json:"sort_reverse"` // 是否倒序
}

// NewFilterExplanation 解释过滤器
func NewFilterExplanation(f *filter.Filter) FilterExplanation {
	terms := f.Terms()
	infos := make([]TermInfo, 0, len(terms))
	for _, t := range terms {
		infos = append(infos, TermInfo{
			Keyword:  t.Keyword,
			Relation: string(t.Relation),
			Value:    t.Value,
			Text:     t.String(),
		})
	}
	return FilterExplanation{
		Filter:      filter.ToFilterString(f),
		Simple:      filter.ToFilterString(f.Simple()),
		Terms:       infos,
		First:       f.First(),
		Rows:        f.Rows(),
		SortBy:      f.SortBy(),
		SortReverse: f.SortReverse(),
	}
}

// NewListResponse 列表结果转为响应
func NewListResponse(result *command.ListResult) ListResponse {
	return ListResponse{
		Items:  result.Data,
		Counts: result.Meta.Counts,
		Filter: result.Meta.FilterString(),
		Meta:   result.Meta.Meta,
	}
}
