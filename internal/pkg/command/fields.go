package command

import (
	"sort"

	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// MapFields 将调用方的驼峰字段转换为请求参数
//   - 键名 camelCase -> snake_case，fieldMap 中的键直接使用映射后的参数名
//   - 切片写入以 ":" 结尾的多值键
//   - bool 写为 1 / 0，nil 字段不发送
//
// 参数按字段名排序写入，保证同样的输入得到同样的请求
func MapFields(data map[string]any, fieldMap map[string]string) *Params {
	p := NewParams()
	for _, key := range sortedKeys(data) {
		name, ok := fieldMap[key]
		if !ok {
			name = record.SnakeCase(key)
		}
		if name == "" {
			// 映射为空表示该字段不发送
			continue
		}
		p.Set(name, data[key])
	}
	return p
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
