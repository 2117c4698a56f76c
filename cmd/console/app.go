/*
 * @description: 运行时装配
 * @func:
 *   - 加载 .env 与配置文件
 *   - 初始化日志
 *   - 创建传输层（可选响应缓存）与资源注册中心
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/greenbone/gsa-sub043/internal/config"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/database"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"
	"github.com/greenbone/gsa-sub043/internal/pkg/transport"
	"github.com/greenbone/gsa-sub043/internal/resource"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// app 一次命令执行所需的全部组件
type app struct {
	config    *config.Config
	logger    *logger.LoggerManager
	backend   *transport.HTTPTransport
	cache     *transport.CachingTransport
	registry  *command.Registry
	closeFunc []func()
}

// newApp 装配运行时
// cli 为 true 时日志输出到 stderr 且默认只输出警告，避免干扰命令输出
func newApp(cli bool) (*app, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath, envName)
	if err != nil {
		return nil, err
	}
	if cli {
		cfg.Log.Output = "stderr"
		cfg.Log.Level = "warn"
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	lm, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	backend, err := transport.NewHTTPTransport(cfg.Backend)
	if err != nil {
		return nil, err
	}

	a := &app{config: cfg, logger: lm, backend: backend}

	var t command.Transport = backend
	if cfg.Cache.Enabled {
		a.cache = transport.NewCachingTransport(backend, a.cacheStore(), cfg.Cache.Prefix, cfg.Cache.TTL)
		t = a.cache
	}

	if a.registry, err = resource.NewRegistry(t); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// cacheStore Redis 不可用时退回进程内缓存
func (a *app) cacheStore() transport.Store {
	client, err := database.NewRedisConnection(&a.config.Cache.Redis)
	if err != nil {
		logger.LogSystemEvent("cache", "redis_unavailable", "redis unavailable, using in-memory response cache", logrus.WarnLevel, map[string]interface{}{
			"address": a.config.Cache.Redis.GetRedisAddress(),
			"error":   err.Error(),
		})
		return transport.NewMemoryStore()
	}
	a.closeFunc = append(a.closeFunc, func() { _ = client.Close() })
	return transport.NewRedisStore(client)
}

// Close 注销 gsad 会话并释放连接
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.backend.Logout(ctx); err != nil {
		logger.WithFields(logrus.Fields{
			"type":  logger.SystemLog,
			"error": err.Error(),
		}).Warn("logout failed")
	}
	for _, fn := range a.closeFunc {
		fn()
	}
}

// loadDotEnv 加载 .env，文件不存在时忽略
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
