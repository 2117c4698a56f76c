/*
 * @description: filter 子命令，解析并规范化过滤器，不访问后端
 */

package main

import (
	"strings"

	"github.com/greenbone/gsa-sub043/internal/model"
	"github.com/greenbone/gsa-sub043/internal/pkg/filter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newFilterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter <text>",
		Short: "解析并规范化过滤器",
		Long: `解析过滤器文本，显示规范化后的过滤器与每个条件。

示例:
  gsa-console filter 'name="web server" severity>5 rows=20 sort-reverse=severity'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explanation := model.NewFilterExplanation(filter.Parse(strings.Join(args, " ")))

			p, _ := newPrinter(outputFormat)
			if ok, err := p.structured(explanation); ok {
				return err
			}

			pterm.Info.Printfln("filter: %s", explanation.Filter)
			pterm.Info.Printfln("simple: %s", explanation.Simple)
			rows := make([][]string, 0, len(explanation.Terms))
			for _, t := range explanation.Terms {
				rows = append(rows, []string{t.Keyword, t.Relation, t.Value, t.Text})
			}
			return p.table([]string{"KEYWORD", "RELATION", "VALUE", "TERM"}, rows)
		},
	}
}
