/**
 * 响应信封解码
 * @description: gsad 的每个响应都包在一个外层节点（envelope）中，
 *               其中 version/i18n/time/timezone/backend_operation/vendor_version 为协议元数据，其余子节点为业务数据
 * @func:
 *   - Decode 成功响应 -> {Data, Meta}
 *   - DecodeRejection 失败响应 -> Rejection
 */
package envelope

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Meta 信封元数据
// 数值形式的字段为 float64，其余为 string，缺失为 nil
type Meta struct {
	Version          any `json:"version,omitempty" yaml:"version,omitempty"`
	I18n             any `json:"i18n,omitempty" yaml:"i18n,omitempty"`
	Time             any `json:"time,omitempty" yaml:"time,omitempty"`
	Timezone         any `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	BackendOperation any `json:"backendOperation,omitempty" yaml:"backendOperation,omitempty"`
	VendorVersion    any `json:"vendorVersion,omitempty" yaml:"vendorVersion,omitempty"`
}

// Coercion 字段值转换函数
type Coercion func(v any) any

type metaField struct {
	coerce Coercion
	assign func(m *Meta, v any)
}

// metaFields 线上字段名 -> 转换函数与目标字段
// 不在表中的信封字段全部视为业务数据
var metaFields = map[string]metaField{
	"version":           {NumberOrString, func(m *Meta, v any) { m.Version = v }},
	"i18n":              {NumberOrString, func(m *Meta, v any) { m.I18n = v }},
	"time":              {NumberOrString, func(m *Meta, v any) { m.Time = v }},
	"timezone":          {NumberOrString, func(m *Meta, v any) { m.Timezone = v }},
	"backend_operation": {NumberOrString, func(m *Meta, v any) { m.BackendOperation = v }},
	"vendor_version":    {NumberOrString, func(m *Meta, v any) { m.VendorVersion = v }},
}

// IsMetaField 是否为信封元数据字段
func IsMetaField(name string) bool {
	_, ok := metaFields[name]
	return ok
}

// NumberOrString 数值形式的文本转为 float64，否则保持字符串
func NumberOrString(v any) any {
	s, ok := TextOf(v)
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	f, err := cast.ToFloat64E(trimmed)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return f
}

// Map 返回存在的元数据字段（驼峰键）
func (m Meta) Map() map[string]any {
	out := make(map[string]any, len(metaFields))
	put := func(key string, v any) {
		if v != nil {
			out[key] = v
		}
	}
	put("version", m.Version)
	put("i18n", m.I18n)
	put("time", m.Time)
	put("timezone", m.Timezone)
	put("backendOperation", m.BackendOperation)
	put("vendorVersion", m.VendorVersion)
	return out
}

// Response 解码后的成功响应
type Response struct {
	Wrapper string `json:"-"`
	Data    Tree   `json:"data"`
	Meta    Meta   `json:"meta"`
}

// Decode 解码成功响应
// raw 可以是 string、[]byte、io.Reader，或已经解码的树（外层只有一个键）
func Decode(raw any) (*Response, error) {
	name, value, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}

	var wrapper map[string]any
	switch v := value.(type) {
	case map[string]any:
		wrapper = v
	case string:
		// <envelope/> 或只包含空白
		if strings.TrimSpace(v) != "" {
			return nil, newParseError("envelope <"+name+"> has no element content", nil)
		}
	default:
		return nil, newParseError("envelope <"+name+"> is not an element", nil)
	}

	resp := &Response{Wrapper: name, Data: make(Tree, len(wrapper))}
	for key, v := range wrapper {
		if field, ok := metaFields[key]; ok {
			field.assign(&resp.Meta, field.coerce(v))
			continue
		}
		resp.Data[key] = v
	}
	return resp, nil
}
