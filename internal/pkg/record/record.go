/**
 * 记录映射
 * @description: 将信封解码后的单个元素转换为驼峰命名的领域记录
 *               只做结构上的规范化，字段语义上的类型转换由各资源的映射器在调用处完成
 */
package record

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 解码树的约定键
const (
	attrPrefix = "_"
	textKey    = "__text"

	// IDField 身份属性 _id 对应的字段
	IDField = "id"
	// TextField 混合文本内容对应的字段
	TextField = "text"
)

// Record 规范化后的记录
type Record map[string]any

// ID 记录ID，没有时返回空串
func (r Record) ID() string {
	id, _ := r[IDField].(string)
	return id
}

// Has 是否包含字段
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String 字段的文本形式
func (r Record) String(key string) string {
	return String(r[key])
}

// Lookup 按点号路径读取嵌套字段
func (r Record) Lookup(path string) (any, bool) {
	return Lookup(r, path)
}

// Normalize 规范化一个解码后的元素
//  1. _id -> id，其他 _attr -> 驼峰属性名
//  2. __text -> text
//  3. snake_case 键 -> camelCase
//  4. 嵌套元素递归规范化为 Record，元素列表规范化为 []Record
//  5. 同名时子元素优先于属性；缺失的字段不补默认值
func Normalize(element any) Record {
	switch e := element.(type) {
	case nil:
		return nil
	case Record:
		return normalizeMap(e)
	case map[string]any:
		return normalizeMap(e)
	case string:
		return Record{TextField: e}
	}
	return nil
}

func normalizeMap(m map[string]any) Record {
	out := make(Record, len(m))
	// 先写属性，再写子元素，保证子元素覆盖同名属性
	for k, v := range m {
		if k == textKey || !strings.HasPrefix(k, attrPrefix) {
			continue
		}
		out[CamelCase(strings.TrimPrefix(k, attrPrefix))] = normalizeValue(v)
	}
	if text, ok := m[textKey]; ok {
		out[TextField] = normalizeValue(text)
	}
	for k, v := range m {
		if k == textKey || strings.HasPrefix(k, attrPrefix) {
			continue
		}
		out[CamelCase(k)] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case Record:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case []Record:
		out := make([]Record, len(t))
		for i, item := range t {
			out[i] = normalizeMap(item)
		}
		return out
	case []any:
		if !hasElement(t) {
			items := make([]any, len(t))
			copy(items, t)
			return items
		}
		out := make([]Record, 0, len(t))
		for _, item := range t {
			if r := Normalize(item); r != nil {
				out = append(out, r)
			}
		}
		return out
	}
	return v
}

func hasElement(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, Record:
			return true
		}
	}
	return false
}

// CamelCase snake_case / kebab-case -> camelCase
func CamelCase(key string) string {
	if !strings.ContainsAny(key, "_-") {
		return key
	}
	var b strings.Builder
	b.Grow(len(key))
	upper := false
	for _, r := range key {
		if r == '_' || r == '-' {
			upper = b.Len() > 0
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakeCase camelCase -> snake_case
func SnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LowerFirst 首字母小写
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
