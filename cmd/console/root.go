/*
 * @description: Cobra Root Command 定义
 */

package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// 全局 Flag
var (
	configPath   string
	envName      string
	envFile      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "gsa-console",
	Short: "gsad 管理控制台",
	Long: `gsa-console 通过 gsad 的命令接口管理扫描任务、目标、凭据等资源。
可以作为 REST 服务运行，也可以直接在命令行查询。

示例:
  1.启动 REST 服务
	gsa-console serve --port 8090
  2.查询任务列表
	gsa-console list tasks --filter "status=Done rows=20"
  3.查询单个目标
	gsa-console get target 0d5e3f6a-... -o yaml
  4.检查过滤器
	gsa-console filter 'name="web server" sort-reverse=severity'
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] gsa-console crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件目录 (默认: ./configs)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "运行环境 (development, test, production)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "环境变量文件")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "输出格式 (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	// 全局初始化：校验输出格式，按日志级别开关 pterm 调试输出
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if logLevel == "debug" {
			pterm.EnableDebugMessages()
		} else {
			pterm.DisableDebugMessages()
		}
		_, err := newPrinter(outputFormat)
		return err
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newResourcesCmd(),
		newListCmd(),
		newGetCmd(),
		newDeleteCmd(),
		newExportCmd(),
		newFilterCmd(),
		newVersionCmd(),
	)
}
