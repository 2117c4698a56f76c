/**
 * 后端资源定义
 * @description: 每种资源只声明名称、映射器与字段映射，命令实现全部复用 command 包
 * @func:
 *   - All 所有内置资源
 *   - NewRegistry 注册所有内置资源
 */
package resource

import (
	"strings"

	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// 资源名
const (
	Task          = "task"
	Target        = "target"
	Credential    = "credential"
	PortList      = "port_list"
	Result        = "result"
	Report        = "report"
	Scanner       = "scanner"
	ResourceNames = "resource"
)

// All 所有内置资源
func All() []command.Resource {
	return []command.Resource{
		TaskResource(),
		TargetResource(),
		CredentialResource(),
		PortListResource(),
		ResultResource(),
		ReportResource(),
		ScannerResource(),
		ResourceNamesResource(),
	}
}

// NewRegistry 创建注册了所有内置资源的注册中心
func NewRegistry(t command.Transport) (*command.Registry, error) {
	reg := command.NewRegistry(t)
	for _, res := range All() {
		if err := reg.Register(res); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ref 将 <config id="..."><name>..</name></config> 形式的引用规范为记录，空ID的引用删除
func ref(keys ...string) record.PostFunc {
	return func(r record.Record) record.Record {
		for _, k := range keys {
			v, ok := r[k]
			if !ok {
				continue
			}
			ref, isRecord := v.(record.Record)
			if !isRecord || ref.ID() == "" {
				delete(r, k)
				continue
			}
			r[k] = ref
		}
		return r
	}
}

// splitList 将逗号分隔的字段转为字符串列表
func splitList(keys ...string) record.PostFunc {
	return func(r record.Record) record.Record {
		for _, k := range keys {
			v, ok := r[k]
			if !ok {
				continue
			}
			items := []string{}
			for _, part := range strings.Split(record.String(v), ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
			r[k] = items
		}
		return r
	}
}
