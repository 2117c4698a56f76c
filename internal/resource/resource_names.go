package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// ResourceNamesResource 资源名称列表
// cmd=get_resource_names resource_type=<type>，元素为 <resource id="..."><name>..</name></resource>
// 结果永远是列表，单个元素同样包装
func ResourceNamesResource() command.Resource {
	return command.Resource{
		Name:   ResourceNames,
		Plural: "resource_names",
		Mapper: record.Chain(record.Default, func(r record.Record) record.Record {
			out := record.Record{}
			for _, key := range []string{record.IDField, "name"} {
				if r.Has(key) {
					out[key] = r[key]
				}
			}
			return out
		}),
	}
}
