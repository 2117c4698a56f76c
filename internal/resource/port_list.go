package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// PortListResource 端口列表
func PortListResource() command.Resource {
	return command.Resource{
		Name:   PortList,
		Mapper: record.EntityMapper(parsePortList),
		FieldMap: map[string]string{
			"portRange":  "port_range",
			"fromFile":   "from_file",
			"portCount":  "",
			"portRanges": "",
			"targets":    "",
		},
	}
}

// parsePortList
//   - port_count {all, tcp, udp} 转为整数
//   - port_ranges.port_range 展开为列表，start / end 转为整数
func parsePortList(r record.Record) record.Record {
	r = record.BoolFields("predefined", "deprecated")(r)

	counts := record.Record{"all": 0, "tcp": 0, "udp": 0}
	if pc, ok := r["portCount"]; ok {
		if all, ok := record.Int(pc); ok {
			counts["all"] = all
		}
		if container, isRecord := pc.(record.Record); isRecord {
			counts = record.IntFields("all", "tcp", "udp")(mergeCounts(counts, container))
		}
	}
	r["portCount"] = counts

	r = record.NestedList("portRanges", "portRange")(r)
	if ranges, ok := r["portRanges"].([]record.Record); ok {
		for i, pr := range ranges {
			ranges[i] = record.IntFields("start", "end")(pr)
		}
	}
	r = record.NestedList("targets", "target")(r)
	return r
}

func mergeCounts(counts, container record.Record) record.Record {
	for _, k := range []string{"all", "tcp", "udp"} {
		if v, ok := container[k]; ok {
			counts[k] = v
		}
	}
	return counts
}
