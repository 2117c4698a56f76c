package resource

import (
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/record"
)

// TaskResource 扫描任务
func TaskResource() command.Resource {
	return command.Resource{
		Name:   Task,
		Mapper: record.EntityMapper(parseTask),
		FieldMap: map[string]string{
			"configId":    "config_id",
			"targetId":    "target_id",
			"scannerId":   "scanner_id",
			"scheduleId":  "schedule_id",
			"alertIds":    "alert_ids",
			"inAssets":    "in_assets",
			"minQod":      "min_qod",
			"autoDelete":  "auto_delete",
			"maxChecks":   "max_checks",
			"maxHosts":    "max_hosts",
			"lastReport":  "",
			"reportCount": "",
			"status":      "",
			"progress":    "",
		},
	}
}

// parseTask
//   - progress 转为整数，-1 表示没有运行中的扫描
//   - report_count 转为 {total, finished}
//   - last_report / current_report 展开内部的 report
//   - config / target / scanner / schedule 引用，空ID删除
func parseTask(r record.Record) record.Record {
	r = record.IntFields("progress", "trend")(r)
	r = record.BoolFields("alterable", "hostsOrdering")(r)
	r = ref("config", "target", "scanner", "schedule")(r)

	if rc, ok := r["reportCount"]; ok {
		counts := record.Record{"total": 0, "finished": 0}
		if total, ok := record.Int(rc); ok {
			counts["total"] = total
		}
		if container, isRecord := rc.(record.Record); isRecord {
			if finished, ok := record.Int(container["finished"]); ok {
				counts["finished"] = finished
			}
		}
		r["reportCount"] = counts
	}

	for _, key := range []string{"lastReport", "currentReport"} {
		container, ok := r[key].(record.Record)
		if !ok {
			continue
		}
		inner, ok := container["report"].(record.Record)
		if !ok {
			delete(r, key)
			continue
		}
		r[key] = record.DateFields("timestamp", "scanStart", "scanEnd")(inner)
	}

	if prefs, ok := r["preferences"].(record.Record); ok {
		r["preferences"] = record.Records(prefs["preference"])
	}
	return r
}
