/**
 * 过滤器查询语言
 * @description: 后端通用的过滤器（搜索/排序/分页条件）模型，支持解析与序列化的往返
 * @func:
 *   - Parse 文本 -> Filter
 *   - Filter.String 文本形式
 *   - Set/Delete/Has/And/Copy 不可变操作，返回新的 Filter
 */
package filter

import (
	"strings"

	"github.com/spf13/cast"
)

// 分页与排序关键字
const (
	KeywordFirst       = "first"
	KeywordRows        = "rows"
	KeywordSort        = "sort"
	KeywordSortReverse = "sort-reverse"
)

// controlKeywords 控制类关键字（分页、排序、结果级别等），不参与实际搜索
var controlKeywords = map[string]bool{
	KeywordFirst:        true,
	KeywordRows:         true,
	KeywordSort:         true,
	KeywordSortReverse:  true,
	"apply_overrides":   true,
	"autofp":            true,
	"delta_states":      true,
	"levels":            true,
	"min_qod":           true,
	"notes":             true,
	"overrides":         true,
	"result_hosts_only": true,
	"timezone":          true,
}

// repeatableKeywords 允许在同一过滤器中出现多次的关键字
var repeatableKeywords = map[string]bool{
	"tag": true,
}

// IsControlKeyword 是否为控制类关键字
func IsControlKeyword(keyword string) bool {
	return controlKeywords[keyword]
}

// IsRepeatableKeyword 是否为可重复关键字
func IsRepeatableKeyword(keyword string) bool {
	return repeatableKeywords[keyword]
}

// Filter 过滤器
// 不可变：所有修改操作都返回新的实例，多个 goroutine 可以安全共享
type Filter struct {
	id    string
	terms []Term
}

// New 由条件列表创建过滤器
func New(terms ...Term) *Filter {
	f := &Filter{}
	for _, t := range terms {
		f.terms = appendTerm(f.terms, normalizeTerm(t))
	}
	return f
}

// ToFilterString 返回过滤器的文本形式，nil 返回空串
func ToFilterString(f *Filter) string {
	if f == nil {
		return ""
	}
	return f.String()
}

// String 按插入顺序拼接所有条件
func (f *Filter) String() string {
	if f == nil || len(f.terms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(f.terms))
	for _, t := range f.terms {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, " ")
}

// MarshalText 序列化为过滤器文本
func (f *Filter) MarshalText() ([]byte, error) {
	return []byte(ToFilterString(f)), nil
}

// UnmarshalText 从过滤器文本解析
func (f *Filter) UnmarshalText(text []byte) error {
	parsed := Parse(string(text))
	f.terms = parsed.terms
	f.id = ""
	return nil
}

// ID 已保存过滤器的ID
func (f *Filter) ID() string {
	if f == nil {
		return ""
	}
	return f.id
}

// WithID 返回绑定了已保存过滤器ID的新实例
func (f *Filter) WithID(id string) *Filter {
	c := f.Copy()
	c.id = id
	return c
}

// Copy 深拷贝
func (f *Filter) Copy() *Filter {
	if f == nil {
		return &Filter{}
	}
	terms := make([]Term, len(f.terms))
	copy(terms, f.terms)
	return &Filter{id: f.id, terms: terms}
}

// Terms 返回条件列表副本
func (f *Filter) Terms() []Term {
	return f.Copy().terms
}

// Len 条件数量
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}

// IsEmpty 是否没有任何条件
func (f *Filter) IsEmpty() bool {
	return f.Len() == 0
}

// Has 是否包含指定关键字
func (f *Filter) Has(keyword string) bool {
	_, ok := f.Get(keyword)
	return ok
}

// Get 返回指定关键字的第一个条件
func (f *Filter) Get(keyword string) (Term, bool) {
	if f == nil || keyword == "" {
		return Term{}, false
	}
	for _, t := range f.terms {
		if t.Keyword == keyword {
			return t, true
		}
	}
	return Term{}, false
}

// Value 返回指定关键字的值，不存在返回空串
func (f *Filter) Value(keyword string) string {
	t, _ := f.Get(keyword)
	return t.Value
}

// Set 设置关键字条件，已存在时原位替换（可重复关键字替换为唯一一个）
// 关键字非法时返回未修改的副本
func (f *Filter) Set(keyword, value string, relation ...Relation) *Filter {
	c := f.Copy()
	if !ValidKeyword(keyword) {
		return c
	}
	rel := RelationEqual
	if len(relation) > 0 && relation[0] != RelationNone {
		rel = relation[0]
	}
	term := NewTerm(keyword, value, rel)

	replaced := false
	terms := c.terms[:0]
	for _, t := range c.terms {
		if t.Keyword != keyword {
			terms = append(terms, t)
			continue
		}
		if !replaced {
			terms = append(terms, term)
			replaced = true
		}
	}
	if !replaced {
		terms = append(terms, term)
	}
	c.terms = terms
	return c
}

// Add 追加条件：可重复关键字与自由文本直接追加，其余关键字原位替换
func (f *Filter) Add(t Term) *Filter {
	c := f.Copy()
	c.terms = appendTerm(c.terms, normalizeTerm(t))
	return c
}

// Delete 删除指定关键字的全部条件
func (f *Filter) Delete(keyword string) *Filter {
	c := f.Copy()
	terms := c.terms[:0]
	for _, t := range c.terms {
		if t.Keyword != keyword {
			terms = append(terms, t)
		}
	}
	c.terms = terms
	return c
}

// And 合并另一个过滤器的条件，关键字冲突时以 other 为准
// 相同的自由文本条件不会重复添加，因此 f.And(f) 等价于 f
func (f *Filter) And(other *Filter) *Filter {
	c := f.Copy()
	if other == nil {
		return c
	}
	for _, t := range other.terms {
		if t.Keyword == "" || IsRepeatableKeyword(t.Keyword) {
			if !containsTerm(c.terms, t) {
				c.terms = append(c.terms, t)
			}
			continue
		}
		c.terms = appendTerm(c.terms, t)
	}
	if c.id == "" {
		c.id = other.id
	}
	return c
}

// Equal 比较两个过滤器的ID与文本形式
func (f *Filter) Equal(other *Filter) bool {
	return f.ID() == other.ID() && ToFilterString(f) == ToFilterString(other)
}

// Simple 去掉控制类关键字后的过滤器
func (f *Filter) Simple() *Filter {
	c := f.Copy()
	terms := c.terms[:0]
	for _, t := range c.terms {
		if !IsControlKeyword(t.Keyword) {
			terms = append(terms, t)
		}
	}
	c.terms = terms
	return c
}

// First 分页起始位置，缺省为 1
func (f *Filter) First() int {
	first, err := cast.ToIntE(f.Value(KeywordFirst))
	if err != nil || first < 1 {
		return 1
	}
	return first
}

// Rows 每页行数，缺省为 0，-1 表示全部
func (f *Filter) Rows() int {
	rows, err := cast.ToIntE(f.Value(KeywordRows))
	if err != nil {
		return 0
	}
	return rows
}

// SortBy 排序字段（sort 或 sort-reverse 的值）
func (f *Filter) SortBy() string {
	if t, ok := f.Get(KeywordSortReverse); ok {
		return t.Value
	}
	return f.Value(KeywordSort)
}

// SortReverse 是否倒序
func (f *Filter) SortReverse() bool {
	return f.Has(KeywordSortReverse)
}

// WithSort 设置排序字段与方向
func (f *Filter) WithSort(field string, reverse bool) *Filter {
	c := f.Delete(KeywordSort).Delete(KeywordSortReverse)
	if field == "" {
		return c
	}
	if reverse {
		return c.Set(KeywordSortReverse, field)
	}
	return c.Set(KeywordSort, field)
}

// Next 下一页
func (f *Filter) Next() *Filter {
	rows := f.Rows()
	if rows <= 0 {
		return f.Copy()
	}
	return f.Set(KeywordFirst, cast.ToString(f.First()+rows))
}

// Previous 上一页，不会小于第一页
func (f *Filter) Previous() *Filter {
	rows := f.Rows()
	if rows <= 0 {
		return f.Copy()
	}
	first := f.First() - rows
	if first < 1 {
		first = 1
	}
	return f.Set(KeywordFirst, cast.ToString(first))
}

// FirstPage 回到第一页
func (f *Filter) FirstPage() *Filter {
	return f.Set(KeywordFirst, "1")
}

// All 请求全部结果: first=1 rows=-1
func (f *Filter) All() *Filter {
	return f.Set(KeywordFirst, "1").Set(KeywordRows, "-1")
}

// appendTerm 追加条件，非可重复关键字已存在时原位替换
func appendTerm(terms []Term, t Term) []Term {
	if t.Keyword == "" || IsRepeatableKeyword(t.Keyword) {
		return append(terms, t)
	}
	for i := range terms {
		if terms[i].Keyword == t.Keyword {
			terms[i] = t
			return terms
		}
	}
	return append(terms, t)
}

func containsTerm(terms []Term, t Term) bool {
	for _, existing := range terms {
		if existing == t {
			return true
		}
	}
	return false
}
