package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Lookup 获取嵌套字段值 (支持 "get_tasks.get_tasks_response.task" 这种点号语法)
// 遇到列表时，数字段按下标取值，非数字段取第一个元素继续查找
func Lookup(data any, path string) (any, bool) {
	if path == "" {
		return data, data != nil
	}
	current := data
	for _, part := range strings.Split(path, ".") {
		if current == nil {
			return nil, false
		}
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		case Record:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			v, ok := indexOrFirst(len(node), part, func(i int) any { return node[i] })
			if !ok {
				return nil, false
			}
			current = v
		case []Record:
			v, ok := indexOrFirst(len(node), part, func(i int) any { return node[i] })
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, current != nil
}

func indexOrFirst(n int, part string, at func(int) any) (any, bool) {
	if idx, err := strconv.Atoi(part); err == nil {
		if idx < 0 || idx >= n {
			return nil, false
		}
		return at(idx), true
	}
	if n == 0 {
		return nil, false
	}
	return Lookup(at(0), part)
}

// ForceArray 单个值包装为长度为 1 的列表，nil 返回空列表
func ForceArray(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	case []Record:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

// Records 将单个或多个元素统一为 []Record
func Records(v any) []Record {
	return MapAll(Default, v)
}

// String 返回字段的文本形式，元素取其 text，列表取第一个
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case Record:
		return String(t[TextField])
	case map[string]any:
		if s, ok := t[textKey]; ok {
			return String(s)
		}
		return String(t[TextField])
	case []any:
		if len(t) > 0 {
			return String(t[0])
		}
		return ""
	}
	return cast.ToString(v)
}

// Bool01 将 0/1 标志转为布尔值
func Bool01(v any) bool {
	b, err := cast.ToBoolE(strings.TrimSpace(String(v)))
	return err == nil && b
}

// Int 转为整数，无法转换时 ok 为 false
func Int(v any) (int, bool) {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return 0, false
	}
	i, err := cast.ToIntE(s)
	if err != nil {
		// 兼容 "08" 这类带前导零的十进制
		n, perr := strconv.Atoi(s)
		if perr != nil {
			return 0, false
		}
		return n, true
	}
	return i, true
}

// Float 转为浮点数，无法转换时 ok 为 false
func Float(v any) (float64, bool) {
	s := strings.TrimSpace(String(v))
	if s == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Date 解析后端返回的时间（ISO 8601 等常见格式），无法解析时 ok 为 false
func Date(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, !t.IsZero()
	}
	s := strings.TrimSpace(String(v))
	if s == "" {
		return time.Time{}, false
	}
	t, err := cast.ToTimeE(s)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Rename 重命名字段，字段不存在时不做处理
func Rename(r Record, from, to string) Record {
	if v, ok := r[from]; ok {
		delete(r, from)
		r[to] = v
	}
	return r
}

// BoolFields 将指定字段转为布尔值
func BoolFields(keys ...string) PostFunc {
	return func(r Record) Record {
		for _, k := range keys {
			if v, ok := r[k]; ok {
				r[k] = Bool01(v)
			}
		}
		return r
	}
}

// IntFields 将指定字段转为整数，无法转换的保持原值
func IntFields(keys ...string) PostFunc {
	return func(r Record) Record {
		for _, k := range keys {
			if i, ok := Int(r[k]); ok {
				r[k] = i
			}
		}
		return r
	}
}

// FloatFields 将指定字段转为浮点数，无法转换的保持原值
func FloatFields(keys ...string) PostFunc {
	return func(r Record) Record {
		for _, k := range keys {
			if f, ok := Float(r[k]); ok {
				r[k] = f
			}
		}
		return r
	}
}

// DateFields 将指定字段转为时间，空值删除
func DateFields(keys ...string) PostFunc {
	return func(r Record) Record {
		for _, k := range keys {
			v, ok := r[k]
			if !ok {
				continue
			}
			if t, ok := Date(v); ok {
				r[k] = t
			} else if String(v) == "" {
				delete(r, k)
			}
		}
		return r
	}
}

// ArrayFields 将指定字段统一为 []Record
func ArrayFields(keys ...string) PostFunc {
	return func(r Record) Record {
		for _, k := range keys {
			if v, ok := r[k]; ok {
				r[k] = Records(v)
			}
		}
		return r
	}
}

// NestedList 将 {count, <item>: ...} 形式的容器展开为 []Record
// 例如 hosts: {host: [...]} -> hosts: [...]
func NestedList(key, item string) PostFunc {
	return func(r Record) Record {
		container, ok := r[key].(Record)
		if !ok {
			return r
		}
		r[key] = Records(container[item])
		return r
	}
}
