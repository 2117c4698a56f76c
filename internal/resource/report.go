package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// ReportResource 扫描报告
// 报告元素内部还有一层同名 report 元素保存扫描数据
func ReportResource() command.Resource {
	return command.Resource{
		Name:   Report,
		Mapper: record.EntityMapper(parseReport),
	}
}

// parseReport
//   - 内层 report 中的 scan_run_status / timestamp / scan_start / scan_end / result_count 提到外层
//   - results.result 使用结果映射器展开
//   - hosts / ports 展开为列表
func parseReport(r record.Record) record.Record {
	r = record.DateFields("timestamp", "scanStart", "scanEnd")(r)

	inner, ok := r["report"].(record.Record)
	if !ok {
		return r
	}
	delete(r, "report")

	for _, k := range []string{"scanRunStatus", "timestamp", "scanStart", "scanEnd", "timezone", "task"} {
		if v, ok := inner[k]; ok {
			r[k] = v
		}
	}
	r = record.DateFields("timestamp", "scanStart", "scanEnd")(r)

	if rc, ok := inner["resultCount"].(record.Record); ok {
		r["resultCount"] = parseResultCount(rc)
	}
	if results, ok := inner["results"].(record.Record); ok {
		list := record.Records(results["result"])
		for i, res := range list {
			list[i] = parseResult(record.ParseEntity(res))
		}
		r["results"] = list
	}
	if hosts, ok := inner["host"]; ok {
		r["hosts"] = record.Records(hosts)
	}
	if ports, ok := inner["ports"].(record.Record); ok {
		r["ports"] = record.Records(ports["port"])
	}
	return r
}

// parseResultCount <result_count>12<full>30</full><filtered>12</filtered><high><full>2</full>...</result_count>
func parseResultCount(rc record.Record) record.Record {
	out := record.Record{}
	if total, ok := record.Int(rc); ok {
		out["total"] = total
	}
	for k, v := range rc {
		if k == record.TextField {
			continue
		}
		switch t := v.(type) {
		case record.Record:
			sub := record.Record{}
			for sk, sv := range t {
				if i, ok := record.Int(sv); ok {
					sub[sk] = i
				}
			}
			out[k] = sub
		default:
			if i, ok := record.Int(t); ok {
				out[k] = i
			}
		}
	}
	return out
}
