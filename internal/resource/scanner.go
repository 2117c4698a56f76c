package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// ScannerResource 扫描器
func ScannerResource() command.Resource {
	return command.Resource{
		Name:   Scanner,
		Mapper: record.EntityMapper(parseScanner),
		FieldMap: map[string]string{
			"type":         "scanner_type",
			"credentialId": "credential_id",
			"caPub":        "ca_pub",
			"configs":      "",
			"tasks":        "",
		},
	}
}

// parseScanner
//   - port / type 转为整数
//   - credential 引用，空ID删除
//   - configs.config / tasks.task 展开为列表
func parseScanner(r record.Record) record.Record {
	r = record.IntFields("port", "type")(r)
	r = ref("credential")(r)
	r = record.NestedList("configs", "config")(r)
	r = record.NestedList("tasks", "task")(r)
	if info, ok := r["caPubInfo"].(record.Record); ok {
		r["caPubInfo"] = record.DateFields("activationTime", "expirationTime")(info)
	}
	return r
}
