/*
 * @description: 命令输出
 * @func:
 *   - table 使用 pterm 渲染表格
 *   - json / yaml 输出完整结构
 */

package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/greenbone/gsa-sub043/internal/pkg/record"

	jsoniter "github.com/json-iterator/go"
	"github.com/pterm/pterm"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// 输出格式
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string) (*printer, error) {
	switch strings.ToLower(format) {
	case formatTable, "":
		return &printer{format: formatTable, w: os.Stdout}, nil
	case formatJSON, formatYAML:
		return &printer{format: strings.ToLower(format), w: os.Stdout}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q (table, json, yaml)", format)
}

// structured json / yaml 格式时输出 v 并返回 true
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return true, err
	case formatYAML:
		// 先转为通用结构，保证字段名与 json 输出一致
		data, err := json.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode yaml: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return true, fmt.Errorf("failed to encode yaml: %w", err)
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(generic); err != nil {
			return true, fmt.Errorf("failed to encode yaml: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// table 使用 pterm 渲染表格
func (p *printer) table(headers []string, rows [][]string) error {
	if len(rows) == 0 {
		pterm.Warning.Println("No results found.")
		return nil
	}
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)

	err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithWriter(p.w).
		WithData(tableData).
		Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// recordRows 每条记录一行，columns 为驼峰字段名
func recordRows(records []record.Record, columns []string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			v, _ := r.Lookup(col)
			row[i] = cell(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// fieldRows 单条记录按字段展开为 字段/值 两列
func fieldRows(r record.Record) [][]string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, cell(r[k])})
	}
	return rows
}

// cell 表格单元格文本
// 嵌套记录显示 name（没有时显示 id），列表显示各项并以逗号分隔
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case record.Record:
		if name := t.String("name"); name != "" {
			return name
		}
		if id := t.ID(); id != "" {
			return id
		}
		return fmt.Sprintf("{%d fields}", len(t))
	case map[string]any:
		return cell(record.Record(t))
	case []record.Record:
		items := make([]string, 0, len(t))
		for _, r := range t {
			items = append(items, cell(r))
		}
		return strings.Join(items, ", ")
	case []string:
		return strings.Join(t, ", ")
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, cell(item))
		}
		return strings.Join(items, ", ")
	}
	return cast.ToString(v)
}
