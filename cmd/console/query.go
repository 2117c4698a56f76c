/*
 * @description: 资源查询与修改子命令
 * @func:
 *   - resources 已注册资源
 *   - list / get 查询
 *   - delete 按ID或过滤器删除
 *   - export 导出原始响应
 */

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/greenbone/gsa-sub043/internal/model"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/filter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "显示已注册的资源类型",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			p, _ := newPrinter(outputFormat)
			resources := a.registry.Resources()
			infos := make([]model.ResourceInfo, 0, len(resources))
			rows := make([][]string, 0, len(resources))
			for _, res := range resources {
				infos = append(infos, model.ResourceInfo{Name: res.Name, Plural: res.Plural})
				rows = append(rows, []string{res.Name, res.Plural})
			}
			if ok, err := p.structured(infos); ok {
				return err
			}
			return p.table([]string{"NAME", "PLURAL"}, rows)
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		filterText string
		filterID   string
		all        bool
		columns    []string
	)

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "查询资源列表",
		Long: `查询资源列表，资源名可以是单数或复数形式。

示例:
  gsa-console list tasks --filter "status=Done sort-reverse=modified"
  gsa-console list results --all --columns id,name,severity,host.name`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			coll, err := a.registry.Collection(args[0])
			if err != nil {
				return err
			}
			opts := command.ListOptions{Filter: cliFilter(filterText, filterID)}
			var result *command.ListResult
			if all {
				result, err = coll.GetAll(cmd.Context(), opts)
			} else {
				result, err = coll.Get(cmd.Context(), opts)
			}
			if err != nil {
				return err
			}

			p, _ := newPrinter(outputFormat)
			if ok, err := p.structured(model.NewListResponse(result)); ok {
				return err
			}
			headers := make([]string, len(columns))
			for i, col := range columns {
				headers[i] = strings.ToUpper(col)
			}
			if err := p.table(headers, recordRows(result.Data, columns)); err != nil {
				return err
			}
			counts := result.Meta.Counts
			if counts.Length > 0 {
				pterm.Info.Printfln("%d - %d of %d (total %d)", counts.First, counts.Last(), counts.Filtered, counts.All)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filterText, "filter", "f", "", "过滤器")
	cmd.Flags().StringVar(&filterID, "filter-id", "", "已保存的过滤器ID")
	cmd.Flags().BoolVar(&all, "all", false, "查询全部 (first=1 rows=-1)")
	cmd.Flags().StringSliceVar(&columns, "columns", []string{"id", "name"}, "表格列，支持点号路径")
	return cmd
}

func newGetCmd() *cobra.Command {
	var (
		filterText string
		details    bool
	)

	cmd := &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "查询单个资源",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			entity, err := a.registry.Entity(args[0])
			if err != nil {
				return err
			}
			opts := command.GetOptions{Filter: cliFilter(filterText, "")}
			if details {
				opts.Extra = map[string]any{"details": 1}
			}
			result, err := entity.Get(cmd.Context(), args[1], opts)
			if err != nil {
				return err
			}

			p, _ := newPrinter(outputFormat)
			if ok, err := p.structured(model.EntityResponse{Item: result.Data, Meta: result.Meta}); ok {
				return err
			}
			return p.table([]string{"FIELD", "VALUE"}, fieldRows(result.Data))
		},
	}

	cmd.Flags().StringVarP(&filterText, "filter", "f", "", "附加过滤器，例如报告的结果过滤")
	cmd.Flags().BoolVar(&details, "details", false, "请求详细信息 (details=1)")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var filterText string

	cmd := &cobra.Command{
		Use:   "delete <resource> [id...]",
		Short: "删除资源",
		Long: `按ID删除资源，多个ID时批量删除；也可以按过滤器删除全部匹配的资源。

示例:
  gsa-console delete task 2f6c...
  gsa-console delete tasks --filter "name~tmp"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ids := args[1:]
			var result *command.ActionResult
			switch {
			case len(ids) == 1:
				entity, err := a.registry.Entity(args[0])
				if err != nil {
					return err
				}
				result, err = entity.Delete(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
			case len(ids) > 1 || filterText != "":
				coll, err := a.registry.Collection(args[0])
				if err != nil {
					return err
				}
				if len(ids) > 0 {
					result, err = coll.Delete(cmd.Context(), ids)
				} else {
					result, err = coll.DeleteByFilter(cmd.Context(), filter.Parse(filterText))
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("delete needs ids or --filter: %w", command.ErrMissingID)
			}

			p, _ := newPrinter(outputFormat)
			if ok, err := p.structured(result); ok {
				return err
			}
			pterm.Success.Println(actionMessage(result, "deleted"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filterText, "filter", "f", "", "按过滤器删除")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export <resource> <id>",
		Short: "导出单个资源的原始 XML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			entity, err := a.registry.Entity(args[0])
			if err != nil {
				return err
			}
			result, err := entity.Export(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			if outFile == "" || outFile == "-" {
				_, err = os.Stdout.Write(result.Body)
				return err
			}
			if err := os.WriteFile(outFile, result.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			pterm.Success.Printfln("exported %s %s to %s (%d bytes)", entity.Resource().Name, args[1], outFile, len(result.Body))
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "file", "", "输出文件，默认标准输出")
	return cmd
}

// cliFilter 命令行过滤器，都为空时返回 nil 使用后端默认过滤
func cliFilter(text, id string) *filter.Filter {
	if strings.TrimSpace(text) == "" && id == "" {
		return nil
	}
	f := filter.Parse(text)
	if id != "" {
		f = f.WithID(id)
	}
	return f
}

func actionMessage(result *command.ActionResult, verb string) string {
	if result.Message != "" {
		return result.Message
	}
	if result.Action != "" {
		return result.Action
	}
	return verb
}
