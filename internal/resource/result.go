package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// ResultResource 扫描结果
func ResultResource() command.Resource {
	return command.Resource{
		Name:   Result,
		Mapper: record.EntityMapper(parseResult),
	}
}

// parseResult
//   - severity / original_severity 转为浮点数
//   - qod.value 转为整数
//   - host 展开为 {name, hostname, asset}
//   - nvt 的 severities / refs 展开为列表
func parseResult(r record.Record) record.Record {
	r = record.FloatFields("severity", "originalSeverity")(r)

	if qod, ok := r["qod"].(record.Record); ok {
		r["qod"] = record.IntFields("value")(qod)
	}

	switch host := r["host"].(type) {
	case string:
		r["host"] = record.Record{"name": host}
	case record.Record:
		normalized := record.Record{"name": host.String(record.TextField)}
		if hostname := host.String("hostname"); hostname != "" {
			normalized["hostname"] = hostname
		}
		if asset, ok := host["asset"].(record.Record); ok && asset.ID() != "" {
			normalized["asset"] = asset
		}
		r["host"] = normalized
	}

	if nvt, ok := r["nvt"].(record.Record); ok {
		nvt = record.FloatFields("cvssBase")(nvt)
		nvt = record.NestedList("refs", "ref")(nvt)
		if severities, ok := nvt["severities"].(record.Record); ok {
			list := record.Records(severities["severity"])
			for i, s := range list {
				list[i] = record.FloatFields("score")(s)
			}
			nvt["severities"] = list
		}
		r["nvt"] = nvt
	}

	if notes, ok := r["notes"].(record.Record); ok {
		r["notes"] = record.Records(notes["note"])
	}
	if overrides, ok := r["overrides"].(record.Record); ok {
		r["overrides"] = record.Records(overrides["override"])
	}
	return r
}
