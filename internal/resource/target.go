package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// TargetResource 扫描目标
func TargetResource() command.Resource {
	return command.Resource{
		Name:   Target,
		Mapper: record.EntityMapper(parseTarget),
		FieldMap: map[string]string{
			"portListId":       "port_list_id",
			"sshCredentialId":  "ssh_credential_id",
			"sshPort":          "port",
			"smbCredentialId":  "smb_credential_id",
			"esxiCredentialId": "esxi_credential_id",
			"snmpCredentialId": "snmp_credential_id",
			"maxHosts":         "",
			"tasks":            "",
		},
	}
}

// parseTarget
//   - hosts / exclude_hosts 逗号分隔 -> 列表
//   - max_hosts 转为整数
//   - tasks.task 展开为列表
func parseTarget(r record.Record) record.Record {
	r = splitList("hosts", "excludeHosts")(r)
	r = record.IntFields("maxHosts")(r)
	r = record.BoolFields("allowSimultaneousIps", "reverseLookupOnly", "reverseLookupUnify")(r)
	r = ref("portList", "sshCredential", "smbCredential", "esxiCredential", "snmpCredential")(r)
	r = record.NestedList("tasks", "task")(r)
	return r
}
