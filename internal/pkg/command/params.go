package command

import (
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/greenbone/gsa-sub043/internal/pkg/filter"

	"github.com/spf13/cast"
)

// MultiValueSuffix 多值参数键的后缀，例如 resource_ids:
const MultiValueSuffix = ":"

// Params 按插入顺序保存的请求参数
type Params struct {
	keys   []string
	values map[string][]string
}

// NewParams 创建参数集合
func NewParams() *Params {
	return &Params{values: make(map[string][]string)}
}

// Set 设置参数，替换同名参数
//   - 切片 ([]byte 除外) 写入以 ":" 结尾的键，每个元素一个值
//   - bool 写为 1 / 0
//   - nil 忽略
func (p *Params) Set(key string, value any) *Params {
	if value == nil || key == "" {
		return p
	}
	switch v := value.(type) {
	case []string:
		p.put(multiKey(key), v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, paramString(item))
		}
		p.put(multiKey(key), items)
	case []byte:
		p.put(key, []string{string(v)})
	default:
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			items := make([]string, 0, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				items = append(items, paramString(rv.Index(i).Interface()))
			}
			p.put(multiKey(key), items)
			return p
		}
		p.put(key, []string{paramString(value)})
	}
	return p
}

// Add 追加一个值
func (p *Params) Add(key, value string) *Params {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], value)
	return p
}

// SetFilter 写入 filter / filter_id，nil 或空过滤器时不写
func (p *Params) SetFilter(f *filter.Filter) *Params {
	if s := filter.ToFilterString(f); s != "" {
		p.Set("filter", s)
	}
	if id := f.ID(); id != "" {
		p.Set("filter_id", id)
	}
	return p
}

// Merge 合并另一组参数，同名参数被替换
func (p *Params) Merge(other map[string]any) *Params {
	for _, k := range sortedKeys(other) {
		p.Set(k, other[k])
	}
	return p
}

func (p *Params) put(key string, values []string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = values
}

// Get 返回参数的第一个值
func (p *Params) Get(key string) string {
	if vs := p.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// GetAll 返回参数的全部值
func (p *Params) GetAll(key string) []string {
	return p.values[key]
}

// Has 是否包含参数
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys 参数键，按插入顺序
func (p *Params) Keys() []string {
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Len 参数个数
func (p *Params) Len() int {
	return len(p.keys)
}

// Values 转为 url.Values
func (p *Params) Values() url.Values {
	out := make(url.Values, len(p.keys))
	for _, k := range p.keys {
		out[k] = append([]string(nil), p.values[k]...)
	}
	return out
}

// Encode 按插入顺序编码为 query string
func (p *Params) Encode() string {
	var b strings.Builder
	for _, k := range p.keys {
		for _, v := range p.values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Clone 复制参数
func (p *Params) Clone() *Params {
	c := NewParams()
	for _, k := range p.keys {
		c.put(k, append([]string(nil), p.values[k]...))
	}
	return c
}

func multiKey(key string) string {
	if strings.HasSuffix(key, MultiValueSuffix) {
		return key
	}
	return key + MultiValueSuffix
}

func paramString(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format(time.RFC3339)
	case *filter.Filter:
		return filter.ToFilterString(t)
	case filter.Relation:
		return string(t)
	}
	return cast.ToString(v)
}
