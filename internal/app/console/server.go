package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/greenbone/gsa-sub043/internal/config"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// shutdownTimeout 优雅关闭的最长等待时间
const shutdownTimeout = 10 * time.Second

// Server 控制台 REST 服务
type Server struct {
	router *Router
	server *http.Server
}

// NewServer 创建服务，路由在创建时注册
func NewServer(cfg *config.Config, registry *command.Registry) *Server {
	router := NewRouter(cfg, registry)
	router.SetupRoutes()

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         cfg.Server.GetAddress(),
			Handler:      router.GetEngine(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Handler HTTP处理器
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run 启动服务，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.LogSystemEvent("console", "start", "console server listening", logrus.InfoLevel, map[string]interface{}{
			"address": s.server.Addr,
		})
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("console server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown console server: %w", err)
	}
	logger.LogSystemEvent("console", "stop", "console server stopped", logrus.InfoLevel, nil)
	return nil
}
