package command

import (
	"fmt"

	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// Resource 一种后端资源的能力描述
// 所有资源共用同一套命令实现，差异只体现在这里的路径、映射器和字段映射
type Resource struct {
	Name        string            // 资源名，例如 task、port_list
	Plural      string            // 复数名，默认 Name + "s"
	ElementPath string            // 单个元素在信封数据中的路径，默认 get_<name>.get_<plural>_response.<name>
	ListPath    string            // 列表响应在信封数据中的路径，默认 get_<plural>.get_<plural>_response
	ListElement string            // 列表响应中元素的键，默认 Name
	Mapper      record.Mapper     // 元素 -> 记录，默认只做结构规范化
	FieldMap    map[string]string // create/save 时的字段名覆盖：调用方字段名 -> 请求参数名
}

// withDefaults 补全默认值
func (r Resource) withDefaults() (Resource, error) {
	if r.Name == "" {
		return r, fmt.Errorf("resource name is required")
	}
	if r.Plural == "" {
		r.Plural = r.Name + "s"
	}
	if r.ElementPath == "" {
		r.ElementPath = fmt.Sprintf("get_%s.get_%s_response.%s", r.Name, r.Plural, r.Name)
	}
	if r.ListPath == "" {
		r.ListPath = fmt.Sprintf("get_%s.get_%s_response", r.Plural, r.Plural)
	}
	if r.ListElement == "" {
		r.ListElement = r.Name
	}
	if r.Mapper == nil {
		r.Mapper = record.Default
	}
	return r, nil
}

// IDParam 资源ID参数名，例如 task_id
func (r *Resource) IDParam() string {
	return r.Name + "_id"
}

// CountsKey 列表计数元素的键，例如 task_count
func (r *Resource) CountsKey() string {
	return r.ListElement + "_count"
}
