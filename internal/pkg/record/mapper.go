package record

// Mapper 将解码后的元素映射为记录
type Mapper interface {
	Map(element any) Record
}

// MapperFunc 函数形式的 Mapper
type MapperFunc func(element any) Record

// Map 实现 Mapper
func (f MapperFunc) Map(element any) Record {
	return f(element)
}

// PostFunc 规范化之后的资源特定处理
type PostFunc func(r Record) Record

// Default 只做结构规范化的映射器
var Default Mapper = MapperFunc(Normalize)

// Chain 在 base 的结果上依次执行 post
// base 为 nil 时使用 Default，base 返回 nil 时不再执行 post
func Chain(base Mapper, post ...PostFunc) Mapper {
	if base == nil {
		base = Default
	}
	return MapperFunc(func(element any) Record {
		r := base.Map(element)
		for _, fn := range post {
			if r == nil {
				return nil
			}
			r = fn(r)
		}
		return r
	})
}

// MapAll 映射列表中的每个元素，单个元素也按长度为 1 的列表处理
func MapAll(m Mapper, v any) []Record {
	if m == nil {
		m = Default
	}
	items := ForceArray(v)
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if r := m.Map(item); r != nil {
			out = append(out, r)
		}
	}
	return out
}
