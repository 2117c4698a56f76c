/*
 * @description: serve 子命令，启动控制台 REST 服务
 */

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/greenbone/gsa-sub043/internal/app/console"
	"github.com/greenbone/gsa-sub043/internal/config"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动控制台 REST 服务",
		Long: `启动 REST 服务，将 /api/v1 下的请求转换为 gsad 命令。
命令行参数优先级高于配置文件。

示例:
  gsa-console serve --host 0.0.0.0 --port 8090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if host != "" {
				a.config.Server.Host = host
			}
			if port > 0 {
				a.config.Server.Port = port
			}

			// 配置热更新只作用于日志配置
			if watch {
				watcher, err := config.NewConfigWatcher(configPath, envName, a.config)
				if err != nil {
					return err
				}
				watcher.AddCallback(a.logger.ReloadCallback)
				if err := watcher.Start(); err != nil {
					logger.WithFields(map[string]interface{}{
						"type":  logger.SystemLog,
						"error": err.Error(),
					}).Warn("config watcher not started")
				} else {
					defer func() { _ = watcher.Stop() }()
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return console.NewServer(a.config, a.registry).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "监听地址")
	cmd.Flags().IntVar(&port, "port", 0, "监听端口")
	cmd.Flags().BoolVar(&watch, "watch", true, "监听配置文件变化并重载日志配置")
	return cmd
}
