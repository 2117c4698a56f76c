/**
 * 路由:路由管理器
 * @description: 控制台 REST 接口路由，资源名既可以是单数也可以是复数（task / tasks）
 * @func:
 *   - NewRouter 创建路由管理器
 *   - SetupRoutes 注册所有路由
 */
package console

import (
	"net/http"
	"time"

	"github.com/greenbone/gsa-sub043/internal/config"
	"github.com/greenbone/gsa-sub043/internal/pkg/command"
	"github.com/greenbone/gsa-sub043/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
type Router struct {
	config  *config.Config
	engine  *gin.Engine
	handler *Handler
	started time.Time
}

// NewRouter 创建路由管理器实例
func NewRouter(cfg *config.Config, registry *command.Registry) *Router {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()
	engine.Use(RequestIDMiddleware(), LoggingMiddleware(), RecoveryMiddleware())

	return &Router{
		config:  cfg,
		engine:  engine,
		handler: NewHandler(registry),
		started: time.Now(),
	}
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes() {
	api := r.engine.Group("/api/v1")

	r.setupHealthRoutes(api)

	api.GET("/resources", r.handler.Resources)
	api.GET("/filter/normalize", r.handler.NormalizeFilter)

	// 复数命令
	api.GET("/:resource", r.handler.List)
	api.GET("/:resource/all", r.handler.ListAll)
	api.GET("/:resource/aggregates", r.handler.Aggregates)
	api.DELETE("/:resource", r.handler.BulkDelete)

	// 单数命令
	api.POST("/:resource", r.handler.Create)
	api.GET("/:resource/:id", r.handler.Get)
	api.PUT("/:resource/:id", r.handler.Save)
	api.DELETE("/:resource/:id", r.handler.Delete)
	api.POST("/:resource/:id/clone", r.handler.Clone)
	api.GET("/:resource/:id/export", r.handler.Export)

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"status": "failed", "message": "route not found"})
	})
}

// setupHealthRoutes 设置健康检查路由
func (r *Router) setupHealthRoutes(api *gin.RouterGroup) {
	api.GET("/health", r.healthCheck)
}

// healthCheck 健康检查处理器
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   r.config.App.Version,
		"backend":   r.config.Backend.URL,
		"uptime":    time.Since(r.started).Round(time.Second).String(),
		"timestamp": logger.FormatTimestamp(time.Now()),
	})
}

// GetEngine 获取Gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
